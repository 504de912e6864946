package dataframe

import (
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/gangfang/kaggle-scripts/internal/errors"
)

const (
	hashMapLoadFactor     = 0.75 // load factor for the group index
	hashMapGrowthFactor   = 2    // growth factor on resize
	hashMapCapacityFactor = 1.3  // capacity factor for the initial size
	minHashMapCapacity    = 8
)

// GroupIndex maps string keys to the row indices carrying them. Keys are
// bucketed by xxhash and remembered in first-appearance order.
type GroupIndex struct {
	buckets    [][]hashEntry
	capacity   int
	loadFactor float64
	keys       []string
}

type hashEntry struct {
	key   string
	value []int
}

// NewGroupIndex creates an index sized for roughly estimatedSize keys.
func NewGroupIndex(estimatedSize int) *GroupIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * hashMapCapacityFactor))
	if capacity < minHashMapCapacity {
		capacity = minHashMapCapacity
	}
	return &GroupIndex{
		buckets:    make([][]hashEntry, capacity),
		capacity:   capacity,
		loadFactor: hashMapLoadFactor,
	}
}

// Put records row under key.
func (g *GroupIndex) Put(key string, row int) {
	idx := g.bucket(key, g.capacity)

	for i := range g.buckets[idx] {
		if g.buckets[idx][i].key == key {
			g.buckets[idx][i].value = append(g.buckets[idx][i].value, row)
			return
		}
	}

	g.buckets[idx] = append(g.buckets[idx], hashEntry{key: key, value: []int{row}})
	g.keys = append(g.keys, key)

	if float64(len(g.keys)) > float64(g.capacity)*g.loadFactor {
		g.resize()
	}
}

// Get returns the rows recorded under key.
func (g *GroupIndex) Get(key string) ([]int, bool) {
	for _, entry := range g.buckets[g.bucket(key, g.capacity)] {
		if entry.key == key {
			return entry.value, true
		}
	}
	return nil, false
}

// Keys returns the keys in first-appearance order.
func (g *GroupIndex) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Len returns the number of distinct keys.
func (g *GroupIndex) Len() int {
	return len(g.keys)
}

func (g *GroupIndex) bucket(key string, capacity int) int {
	//nolint:gosec // capacity is always a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// resize doubles the capacity and rehashes all entries.
func (g *GroupIndex) resize() {
	newCapacity := g.capacity * hashMapGrowthFactor
	newBuckets := make([][]hashEntry, newCapacity)

	for _, bucket := range g.buckets {
		for _, entry := range bucket {
			idx := g.bucket(entry.key, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	g.buckets = newBuckets
	g.capacity = newCapacity
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// GroupBy indexes the rows of a column by their string form. Null cells are
// skipped and their rows returned separately.
func (df *DataFrame) GroupBy(op, column string) (*GroupIndex, []int, error) {
	s, ok := df.Column(column)
	if !ok {
		return nil, nil, errors.NewColumnNotFoundError(op, column)
	}
	index := NewGroupIndex(s.Len() / 4)
	var nullRows []int
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			nullRows = append(nullRows, i)
			continue
		}
		index.Put(s.GetAsString(i), i)
	}
	return index, nullRows, nil
}
