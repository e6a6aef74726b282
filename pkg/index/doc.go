// Package index defines the secondary-index provider surface shared by the
// host, the routing provider and every backend engine.
//
// A host drives one Provider per configured engine. For each index id it asks
// the provider for the initial State, feeds a Populator while the index is
// being built, and once the population is closed successfully it serves reads
// and writes through an online Accessor:
//
//	state, _ := p.InitialState(ctx, id)
//	if state == index.StatePopulating {
//	    pop, _ := p.Populator(ctx, id)
//	    _ = pop.Update(ctx, records)
//	    _ = pop.ClosePopulation(ctx, true)
//	}
//	acc, _ := p.OnlineAccessor(ctx, id)
//	r, _ := acc.NewReader()
//	defer r.Close()
//	hits, _ := r.Lookup(ctx, "a@b.com")
//	defer hits.Close()
//	for hits.Next() {
//	    fmt.Println(hits.ID())
//	}
//
// # Thread Safety
//
// Providers are called from whatever goroutines the host uses for population
// and queries. Implementations must be safe for concurrent use. Readers and
// Hits are single-goroutine handles.
package index
