package sparse

import (
	"sort"

	"HLL-EVAL/general"
)

const PPrime = 25

// SparseHLL is the HLL++ sparse representation: encoded hashes collect in a
// temp set and are periodically merged into a list sorted by p'-index holding
// one entry per index. It is not safe for concurrent use; the owner
// serializes access.
type SparseHLL struct {
	p           int
	sorted_list []uint32
	temp_set    map[uint32]struct{}
	mergeAt     int
}

func decodeHashForMerge(k uint32) (indexPPrime uint32, rhoPrime uint8) {
	if k&1 == 1 {
		// index_p' || rho' || 1
		return k >> 7, uint8((k >> 1) & 0x3F)
	}
	// index_p' || 0
	return k >> 1, 0
}

func NewSparseHLL(p int) *SparseHLL {
	return &SparseHLL{
		p:           p,
		temp_set:    make(map[uint32]struct{}),
		sorted_list: make([]uint32, 0),
		mergeAt:     max((1<<p)>>3, 1),
	}
}

// Insert records an already hashed key.
func (s *SparseHLL) Insert(hash uint64) {
	s.temp_set[general.EncodeHash(hash, s.p, PPrime)] = struct{}{}
	if len(s.temp_set) >= s.mergeAt {
		s.MergeTempSet()
	}
}

// Len is the number of distinct p'-indexes recorded so far, including
// unmerged temp entries (an upper bound until MergeTempSet runs).
func (s *SparseHLL) Len() int {
	return len(s.sorted_list) + len(s.temp_set)
}

// MergeTempSet folds the temp set into the sorted list.
func (s *SparseHLL) MergeTempSet() {
	if len(s.temp_set) == 0 {
		return
	}
	tempSlice := make([]uint32, 0, len(s.temp_set))
	for encoded := range s.temp_set {
		tempSlice = append(tempSlice, encoded)
	}
	s.temp_set = make(map[uint32]struct{})

	sortByIndex(tempSlice)
	tempSlice = dedupeByIndex(tempSlice)
	s.sorted_list = mergeSorted(s.sorted_list, tempSlice)
}

// MergeIntoDense replays every entry into a dense sketch of precision p.
func (s *SparseHLL) MergeIntoDense(dense general.IHLL) {
	s.MergeTempSet()
	for _, encoded := range s.sorted_list {
		idx, rho := general.DecodeHash(encoded, s.p, PPrime)
		if rho > 0 {
			dense.SetRegisterMax(int(idx), rho)
		}
	}
}

// Estimate is linear counting over the 2^p' virtual registers.
func (s *SparseHLL) Estimate() float64 {
	s.MergeTempSet()
	if len(s.sorted_list) == 0 {
		return 0
	}
	m := 1 << PPrime
	return general.LinearCounting(m, uint64(m-len(s.sorted_list)))
}

func (s *SparseHLL) GetSortedList() []uint32 {
	out := make([]uint32, len(s.sorted_list))
	copy(out, s.sorted_list)
	return out
}

func sortByIndex(list []uint32) {
	sort.Slice(list, func(i, j int) bool {
		ii, ri := decodeHashForMerge(list[i])
		ij, rj := decodeHashForMerge(list[j])
		if ii != ij {
			return ii < ij
		}
		return ri < rj
	})
}

// dedupeByIndex keeps the largest rho' per index of a list sorted by
// sortByIndex.
func dedupeByIndex(list []uint32) []uint32 {
	if len(list) < 2 {
		return list
	}
	out := list[:1]
	for _, k := range list[1:] {
		last := out[len(out)-1]
		ik, _ := decodeHashForMerge(k)
		il, _ := decodeHashForMerge(last)
		if ik == il {
			out[len(out)-1] = k
			continue
		}
		out = append(out, k)
	}
	return out
}

func mergeSorted(a, b []uint32) []uint32 {
	newList := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		idx1, rho1 := decodeHashForMerge(a[i])
		idx2, rho2 := decodeHashForMerge(b[j])

		if idx1 < idx2 {
			newList = append(newList, a[i])
			i++
		} else if idx2 < idx1 {
			newList = append(newList, b[j])
			j++
		} else {
			// Indices match: keep the one with the larger rho'
			if rho1 >= rho2 {
				newList = append(newList, a[i])
			} else {
				newList = append(newList, b[j])
			}
			i++
			j++
		}
	}
	newList = append(newList, a[i:]...)
	newList = append(newList, b[j:]...)
	return newList
}
