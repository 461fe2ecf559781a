package reasoner

import (
	"context"
)

type workItem struct {
	edge bool
	role int
	x    int
	a    int // concept added to S(x), or edge target
}

func (r *Reasoner) has(x, a int) bool {
	_, ok := r.S[x][a]
	return ok
}

func (r *Reasoner) addS(x, a int) {
	if r.has(x, a) {
		return
	}
	r.S[x][a] = struct{}{}
	r.queue = append(r.queue, workItem{x: x, a: a})
}

// addEdge records (x, y) ∈ R(s) for role and all its super roles.
func (r *Reasoner) addEdge(role, x, y int) {
	for _, s := range r.sup[role] {
		ys, ok := r.succ[s][x]
		if !ok {
			ys = make(map[int]struct{})
			r.succ[s][x] = ys
		}
		if _, ok := ys[y]; ok {
			continue
		}
		ys[y] = struct{}{}
		xs, ok := r.pred[s][y]
		if !ok {
			xs = make(map[int]struct{})
			r.pred[s][y] = xs
		}
		xs[x] = struct{}{}
		r.predRoles[y][s] = struct{}{}
		r.out[x][y] = struct{}{}
		r.queue = append(r.queue, workItem{edge: true, role: s, x: x, a: y})
	}
}

// saturate applies the completion rules until no work is left. Nominal
// reachability is checked once the queue has drained.
func (r *Reasoner) saturate(ctx context.Context) error {
	for {
		for n := 0; len(r.queue) > 0; n++ {
			if n%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			item := r.queue[len(r.queue)-1]
			r.queue = r.queue[:len(r.queue)-1]
			if item.edge {
				r.processEdge(item.role, item.x, item.a)
			} else {
				r.processConcept(item.x, item.a)
			}
		}
		if !r.applyNominalRule() {
			break
		}
	}
	r.saturated = true
	return nil
}

func (r *Reasoner) processConcept(x, a int) {
	if a == bottomID {
		for s := range r.predRoles[x] {
			for z := range r.pred[s][x] {
				r.addS(z, bottomID)
			}
		}
		return
	}
	for _, b := range r.told[a] {
		r.addS(x, b)
	}
	for _, c := range r.conj[a] {
		if r.has(x, c.other) {
			r.addS(x, c.result)
		}
	}
	for _, e := range r.exists[a] {
		r.addEdge(e.role, x, e.filler)
	}
	for _, l := range r.existsLeft[a] {
		for z := range r.pred[l.role][x] {
			r.addS(z, l.result)
		}
	}
}

func (r *Reasoner) processEdge(role, x, y int) {
	if r.has(y, bottomID) {
		r.addS(x, bottomID)
	}
	for _, l := range r.leftByRole[role] {
		if r.has(y, l.filler) {
			r.addS(x, l.result)
		}
	}
	for _, c := range r.chainsFirst[role] {
		for z := range r.succ[c.other][y] {
			r.addEdge(c.result, x, z)
		}
	}
	for _, c := range r.chainsSecond[role] {
		for w := range r.pred[c.other][x] {
			r.addEdge(c.result, w, y)
		}
	}
}

// applyNominalRule copies S(D) into S(C) whenever C and D share a nominal and
// D is reachable from C or from some nominal.
func (r *Reasoner) applyNominalRule() bool {
	if len(r.nominalIDs) == 0 {
		return false
	}
	fromNominals := r.reachable(r.nominalIDs...)
	changed := false
	for c := range r.S {
		for _, o := range r.nominalIDs {
			if !r.has(c, o) {
				continue
			}
			reach := r.reachable(c)
			for d := range fromNominals {
				reach[d] = struct{}{}
			}
			for d := range reach {
				if d == c || !r.has(d, o) {
					continue
				}
				for e := range r.S[d] {
					if !r.has(c, e) {
						r.addS(c, e)
						changed = true
					}
				}
			}
		}
	}
	return changed
}

func (r *Reasoner) reachable(starts ...int) map[int]struct{} {
	seen := make(map[int]struct{}, len(starts))
	stack := append([]int(nil), starts...)
	for _, s := range starts {
		seen[s] = struct{}{}
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range r.out[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return seen
}
