package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Aman-CERP/indexwrap/internal/catalog"
	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

const probeFile = ".indexwrap-preflight-test"

// CheckWritePermissions checks that files can be created in dir.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	const name = "write_permissions"

	testFile := filepath.Join(dir, probeFile)
	f, err := os.Create(testFile)
	if err != nil {
		return fail(name, fmt.Sprintf("permission denied: %v", err), true)
	}
	_ = f.Close()
	_ = os.Remove(testFile)
	return pass(name, "OK", true)
}

// CheckLegacyBackend warns when the legacy directory already holds data of
// a backend other than the configured one. Open would switch to the
// detected backend.
func (c *Checker) CheckLegacyBackend(dir, configured string) CheckResult {
	const name = "legacy_backend"

	backend, err := legacy.ParseBackend(configured)
	if err != nil {
		return fail(name, err.Error(), true)
	}
	if dir == "" {
		return pass(name, fmt.Sprintf("%s (not persisted)", backend), true)
	}
	detected := legacy.DetectBackend(dir)
	switch {
	case detected == "":
		return pass(name, fmt.Sprintf("%s (no data yet)", backend), true)
	case detected != backend:
		return warn(name,
			fmt.Sprintf("configured %s but %s holds %s data", backend, dir, detected),
			fmt.Sprintf("The existing %s store will be used", detected))
	default:
		return pass(name, string(backend), true)
	}
}

// CheckStoreLock reports whether another process has the legacy store open.
func (c *Checker) CheckStoreLock(dir string) CheckResult {
	const name = "store_lock"

	if dir == "" {
		return pass(name, "not needed", false)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return pass(name, "store not created yet", false)
	}

	lock := legacy.NewDirLock(dir)
	if err := lock.TryLock(); err != nil {
		if werrors.GetCode(err) == werrors.ErrCodeStoreLocked {
			return warn(name, "legacy store is in use by another process", lock.Path())
		}
		return fail(name, err.Error(), false)
	}
	_ = lock.Unlock()
	return pass(name, "free", false)
}

// CheckCatalog opens the catalog read-only in spirit (an absent catalog is
// not created) and checks each route against the index rules.
func (c *Checker) CheckCatalog(ctx context.Context, path, namespace string, routes map[string]string) []CheckResult {
	const name = "catalog"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []CheckResult{warn(name, "no catalog yet",
			"Create index rules with 'indexwrap schema create-index'")}
	}
	cat, err := catalog.NewSQLiteCatalog(path)
	if err != nil {
		return []CheckResult{fail(name, err.Error(), true)}
	}
	defer func() { _ = cat.Close() }()

	rules, err := indexedPairs(ctx, cat)
	if err != nil {
		return []CheckResult{fail(name, err.Error(), true)}
	}
	results := []CheckResult{pass(name, fmt.Sprintf("%d index rule(s)", len(rules)), true)}
	return append(results, checkRoutes(namespace, routes, rules)...)
}

// indexedPairs returns "label.property" for every index rule.
func indexedPairs(ctx context.Context, cat index.Catalog) (map[string]bool, error) {
	defs, err := cat.IndexDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Kind != index.KindIndex {
			continue
		}
		label, err := cat.LabelName(ctx, def.LabelID)
		if err != nil {
			return nil, err
		}
		property, err := cat.PropertyKeyName(ctx, def.PropertyKeyID)
		if err != nil {
			return nil, err
		}
		pairs[label+"."+property] = true
	}
	return pairs, nil
}

// checkRoutes warns about routes that can never be used: keys outside the
// namespace and keys with no matching index rule.
func checkRoutes(namespace string, routes map[string]string, rules map[string]bool) []CheckResult {
	const name = "routes"

	prefix := namespace + "."
	var outside, unused []string
	for key := range routes {
		pair, ok := strings.CutPrefix(key, prefix)
		switch {
		case !ok:
			outside = append(outside, key)
		case !rules[pair]:
			unused = append(unused, key)
		}
	}
	slices.Sort(outside)
	slices.Sort(unused)

	var results []CheckResult
	if len(outside) > 0 {
		results = append(results, warn(name,
			fmt.Sprintf("%d route(s) outside namespace %q", len(outside), namespace),
			strings.Join(outside, ", ")))
	}
	if len(unused) > 0 {
		results = append(results, warn(name,
			fmt.Sprintf("%d route(s) without an index rule", len(unused)),
			strings.Join(unused, ", ")))
	}
	if len(results) == 0 {
		results = append(results, pass(name, fmt.Sprintf("%d route(s) match index rules", len(routes)), false))
	}
	return results
}
