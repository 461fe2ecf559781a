package reasoner

import (
	"strconv"

	"github.com/dfleischhacker/spart/internal/owl"
)

const (
	topID    = 0
	bottomID = 1
)

// Normal forms kept by the completion:
//
//	told:       A ⊑ B
//	conj:       A1 ⊓ A2 ⊑ B
//	exists:     A ⊑ ∃r.B
//	existsLeft: ∃r.A ⊑ B
//
// plus binary role chains r ∘ s ⊑ t. A, B range over ⊤, ⊥, named classes,
// nominals and fresh names.

type conjRule struct {
	other  int
	result int
}

type existsRule struct {
	role   int
	filler int
}

type leftRule struct {
	role   int
	filler int
	result int
}

type chainRule struct {
	other  int
	result int
}

func (r *Reasoner) newConcept(name string) int {
	id := len(r.S)
	r.names = append(r.names, name)
	r.S = append(r.S, make(map[int]struct{}))
	r.out = append(r.out, make(map[int]struct{}))
	r.predRoles = append(r.predRoles, make(map[int]struct{}))
	r.told = append(r.told, nil)
	r.conj = append(r.conj, nil)
	r.exists = append(r.exists, nil)
	r.existsLeft = append(r.existsLeft, nil)
	r.addS(id, id)
	r.addS(id, topID)
	return id
}

func (r *Reasoner) fresh() int {
	r.freshCount++
	return r.newConcept("_:fresh")
}

func (r *Reasoner) classID(iri string) int {
	switch iri {
	case owl.ThingIRI:
		return topID
	case owl.NothingIRI:
		return bottomID
	}
	key := "c:" + iri
	if id, ok := r.conceptIDs[key]; ok {
		return id
	}
	id := r.newConcept(iri)
	r.conceptIDs[key] = id
	return id
}

func (r *Reasoner) nominalID(iri string) int {
	key := "i:" + iri
	if id, ok := r.conceptIDs[key]; ok {
		return id
	}
	id := r.newConcept("{" + iri + "}")
	r.conceptIDs[key] = id
	r.nominalIDs = append(r.nominalIDs, id)
	return id
}

func (r *Reasoner) datatypeID(iri string) int {
	if iri == "" || iri == owl.LiteralIRI {
		return topID
	}
	key := "d:" + iri
	if id, ok := r.conceptIDs[key]; ok {
		return id
	}
	id := r.newConcept(iri)
	r.conceptIDs[key] = id
	return id
}

func (r *Reasoner) roleID(key string) int {
	if id, ok := r.roleIDs[key]; ok {
		return id
	}
	id := len(r.sup)
	r.roleIDs[key] = id
	r.sup = append(r.sup, []int{id})
	r.parents = append(r.parents, nil)
	r.succ = append(r.succ, make(map[int]map[int]struct{}))
	r.pred = append(r.pred, make(map[int]map[int]struct{}))
	r.leftByRole = append(r.leftByRole, nil)
	r.chainsFirst = append(r.chainsFirst, nil)
	r.chainsSecond = append(r.chainsSecond, nil)
	return id
}

func (r *Reasoner) objectRole(iri string) int { return r.roleID("o:" + iri) }
func (r *Reasoner) dataRole(iri string) int   { return r.roleID("d:" + iri) }

func (r *Reasoner) addTold(a, b int) {
	if a == b {
		return
	}
	r.told[a] = append(r.told[a], b)
	if !r.saturated {
		return
	}
	for x := range r.S {
		if r.has(x, a) {
			r.addS(x, b)
		}
	}
}

func (r *Reasoner) addConj(a1, a2, b int) {
	if a1 == a2 {
		r.addTold(a1, b)
		return
	}
	r.conj[a1] = append(r.conj[a1], conjRule{other: a2, result: b})
	r.conj[a2] = append(r.conj[a2], conjRule{other: a1, result: b})
	if !r.saturated {
		return
	}
	for x := range r.S {
		if r.has(x, a1) && r.has(x, a2) {
			r.addS(x, b)
		}
	}
}

func (r *Reasoner) addExists(a, role, filler int) {
	r.exists[a] = append(r.exists[a], existsRule{role: role, filler: filler})
	if !r.saturated {
		return
	}
	for x := range r.S {
		if r.has(x, a) {
			r.addEdge(role, x, filler)
		}
	}
}

func (r *Reasoner) addExistsLeft(role, filler, result int) {
	rule := leftRule{role: role, filler: filler, result: result}
	r.existsLeft[filler] = append(r.existsLeft[filler], rule)
	r.leftByRole[role] = append(r.leftByRole[role], rule)
	if !r.saturated {
		return
	}
	for x, ys := range r.succ[role] {
		for y := range ys {
			if r.has(y, filler) {
				r.addS(x, result)
			}
		}
	}
}

// addChain records r1 ∘ ... ∘ rn ⊑ s, splitting longer chains with fresh roles.
func (r *Reasoner) addChain(chain []int, s int) {
	switch len(chain) {
	case 0:
		return
	case 1:
		r.parents[chain[0]] = append(r.parents[chain[0]], s)
		return
	}
	first := chain[0]
	for i := 1; i < len(chain); i++ {
		result := s
		if i < len(chain)-1 {
			r.freshRoles++
			result = r.roleID("_:chain" + strconv.Itoa(r.freshRoles))
		}
		r.chainsFirst[first] = append(r.chainsFirst[first], chainRule{other: chain[i], result: result})
		r.chainsSecond[chain[i]] = append(r.chainsSecond[chain[i]], chainRule{other: first, result: result})
		first = result
	}
}

// closeRoles computes the reflexive transitive closure of told role inclusions.
func (r *Reasoner) closeRoles() {
	for role := range r.sup {
		seen := map[int]struct{}{role: {}}
		stack := []int{role}
		var sup []int
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sup = append(sup, cur)
			for _, p := range r.parents[cur] {
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				stack = append(stack, p)
			}
		}
		r.sup[role] = sup
	}
}

func (r *Reasoner) isSubRole(sub, super int) bool {
	for _, s := range r.sup[sub] {
		if s == super {
			return true
		}
	}
	return false
}
