// Package scenario loads YAML scenario files and plays them against a
// reactive runtime.
//
// A scenario declares initial state, effects, computed sums and watchers,
// then a list of steps. Running it records every effect run, recompute and
// watch callback as an Event, which the reactor CLI prints.
//
//	name: cart
//	state:
//	  items: [1, 2, 3]
//	  tags: !set [new]
//	computed:
//	  - name: total
//	    sum: items
//	effects:
//	  - name: render
//	    reads: [total, tags]
//	    batched: true
//	watches:
//	  - name: audit
//	    source: items.0
//	    flush: post
//	steps:
//	  - set: {path: items.0, value: 10}
//	  - push: {path: items, value: 4}
//	  - tick: true
//	  - read: total
//
// Paths are dot-separated. Numeric segments index lists; on a set the last
// segment tests membership. Mappings tagged !map become maps and sequences
// tagged !set become sets. Steps between ticks share one turn, so batched
// effects and post watchers run once per tick.
package scenario
