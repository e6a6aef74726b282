//go:build ignore

// Package main generates synthetic entity/value records for populate.
// Usage: go run scripts/generate-records.go -records 100000 -kind email > people.jsonl
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
)

var (
	numRecords = flag.Int("records", 10000, "Number of records to generate")
	kind       = flag.String("kind", "email", "Value kind: email, int, float or bool")
	distinct   = flag.Int("distinct", 0, "Number of distinct values (0 means one per record)")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

type record struct {
	Entity int64 `json:"entity"`
	Value  any   `json:"value"`
}

var domains = []string{"example.com", "example.org", "example.net", "test.io"}

func main() {
	flag.Parse()
	if *numRecords < 0 {
		fmt.Fprintln(os.Stderr, "-records must not be negative")
		os.Exit(2)
	}

	rng := rand.New(rand.NewSource(*seed))
	keys := *distinct
	if keys <= 0 {
		keys = *numRecords
	}

	w := bufio.NewWriter(os.Stdout)
	enc := json.NewEncoder(w)
	for i := range *numRecords {
		v, err := value(rng, rng.Intn(max(keys, 1)))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if err := enc.Encode(record{Entity: int64(i + 1), Value: v}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func value(rng *rand.Rand, key int) (any, error) {
	switch *kind {
	case "email":
		return fmt.Sprintf("user%d@%s", key, domains[key%len(domains)]), nil
	case "int":
		return key, nil
	case "float":
		return float64(key) + rng.Float64(), nil
	case "bool":
		return key%2 == 0, nil
	default:
		return nil, fmt.Errorf("unknown -kind %q", *kind)
	}
}
