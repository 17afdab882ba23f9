package bittable_test

import (
	"math/rand"
	"testing"

	"github.com/dstab/stabsim/bittable"
)

func TestGetSetRoundTrip(t *testing.T) {
	tab := bittable.New(130, 70)
	rng := rand.New(rand.NewSource(5))
	want := make([][]bool, 130)
	for i := range want {
		want[i] = make([]bool, 70)
		for j := range want[i] {
			want[i][j] = rng.Intn(2) == 1
			tab.Set(i, j, want[i][j])
		}
	}
	for i := range want {
		for j := range want[i] {
			if got := tab.Get(i, j); got != want[i][j] {
				t.Fatalf("(%d,%d) = %v, want %v", i, j, got, want[i][j])
			}
		}
	}
}

func TestSquareTransposeIsInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tab := bittable.New(512, 512)
	tab.FillRandom(rng)
	want := tab.NaiveTranspose()
	if err := tab.DoSquareTranspose(); err != nil {
		t.Fatal(err)
	}
	if !tab.Equal(want) {
		t.Fatal("DoSquareTranspose disagrees with NaiveTranspose")
	}
	if err := tab.DoSquareTranspose(); err != nil {
		t.Fatal(err)
	}
	rng2 := rand.New(rand.NewSource(6))
	orig := bittable.New(512, 512)
	orig.FillRandom(rng2)
	if !tab.Equal(orig) {
		t.Fatal("transposing twice did not restore the original table")
	}
}

func TestTransposeIntoMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tab := bittable.New(300, 150)
	tab.FillRandom(rng)
	want := tab.NaiveTranspose()

	out := bittable.New(150, 300)
	if err := tab.TransposeInto(out); err != nil {
		t.Fatal(err)
	}
	if !out.Equal(want) {
		t.Fatal("TransposeInto disagrees with NaiveTranspose")
	}
}

func TestColMatchesGet(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	tab := bittable.New(80, 40)
	tab.FillRandom(rng)
	col := tab.Col(17)
	for i := 0; i < 80; i++ {
		if got, want := col.Get(i), tab.Get(i, 17); got != want {
			t.Fatalf("Col(17).Get(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestDoSquareTransposeRejectsNonSquare(t *testing.T) {
	tab := bittable.New(256, 512)
	if err := tab.DoSquareTranspose(); err == nil {
		t.Fatal("expected an error for a non-square table")
	}
}
