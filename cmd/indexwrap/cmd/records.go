package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// entry is one entity/value pair fed to a populator.
type entry struct {
	EntityID int64 `json:"entity"`
	Value    any   `json:"value"`
}

// openInput opens path for reading; "-" reads from stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, werrors.ValidationError("cannot open input file", err).
			WithDetail("path", path)
	}
	return f, nil
}

// decodeStream decodes a sequence of JSON objects (one per line or simply
// concatenated). Numbers are kept as json.Number so integers stay integers.
func decodeStream[T any](r io.Reader, validate func(int, T) error) ([]T, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var out []T
	for n := 1; ; n++ {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, werrors.ValidationError(fmt.Sprintf("invalid record %d", n), err)
		}
		if err := validate(n, v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func readEntries(r io.Reader) ([]entry, error) {
	return decodeStream(r, func(n int, e entry) error {
		if e.EntityID < 0 {
			return werrors.ValidationError(fmt.Sprintf("record %d: entity id must not be negative", n), nil)
		}
		if e.Value == nil {
			return werrors.ValidationError(fmt.Sprintf("record %d: missing value", n), nil)
		}
		return nil
	})
}

func readMutations(r io.Reader) ([]index.MutationRecord, error) {
	return decodeStream(r, func(n int, rec index.MutationRecord) error {
		switch rec.Mode {
		case index.ModeAdded:
			if rec.After == nil {
				return werrors.ValidationError(fmt.Sprintf("record %d: added requires after", n), nil)
			}
		case index.ModeChanged:
			if rec.Before == nil || rec.After == nil {
				return werrors.ValidationError(fmt.Sprintf("record %d: changed requires before and after", n), nil)
			}
		case index.ModeRemoved:
			if rec.Before == nil {
				return werrors.ValidationError(fmt.Sprintf("record %d: removed requires before", n), nil)
			}
		default:
			return werrors.ValidationError(fmt.Sprintf("record %d: missing mode", n), nil)
		}
		return nil
	})
}

// batches splits items into chunks of at most size.
func batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
