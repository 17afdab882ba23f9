package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/dstab/stabsim/circuit"
	"github.com/dstab/stabsim/sim"
)

func main() {
	shots := flag.Int("shots", 1, "number of measurement shots to sample")
	dump := flag.Bool("dump", false, "print the parsed circuit instead of sampling")
	seed := flag.Int64("seed", time.Now().UnixNano(), "RNG seed")
	workers := flag.Int("workers", 0, "number of goroutines for parallel sampling (0 = GOMAXPROCS)")
	flag.Parse()

	in := os.Stdin
	if args := flag.Args(); len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()
	c, err := circuit.Parse(ctx, in)
	if err != nil {
		log.Fatal(err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if *dump {
		if err := circuit.Dump(out, c); err != nil {
			log.Fatal(err)
		}
		return
	}

	w := *workers
	if w == 0 {
		w = runtime.GOMAXPROCS(-1)
	}
	var rows [][]bool
	if w > 1 && *shots > 1 {
		rows, err = sim.SampleParallel(ctx, c, *shots, w, *seed)
	} else {
		rows, err = sim.Sample(ctx, c, *shots, rand.New(rand.NewSource(*seed)))
	}
	if err != nil {
		log.Fatal(err)
	}
	writeRows(out, rows)
}

func writeRows(w io.Writer, rows [][]bool) {
	line := make([]byte, 0, 64)
	for _, row := range rows {
		line = line[:0]
		for _, bit := range row {
			if bit {
				line = append(line, '1')
			} else {
				line = append(line, '0')
			}
		}
		line = append(line, '\n')
		w.Write(line)
	}
}
