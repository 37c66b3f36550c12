package dpm

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPartition is returned when the cluster invariant is
// broken or a serialized partition does not match the domain.
var ErrInvalidPartition = errors.New("invalid partition")

// Partition assigns every domain element to a cluster. Elements are
// referred to by their position in the domain. Cluster ids are never
// reused.
type Partition struct {
	domain   []Index
	elements map[Index]int
	assign   []int
	clusters map[int][]int
	nextID   int
}

// NewPartition creates a partition with all the elements unassigned.
func NewPartition(domain []Index) *Partition {
	p := &Partition{
		domain:   domain,
		elements: make(map[Index]int, len(domain)),
		assign:   make([]int, len(domain)),
		clusters: make(map[int][]int),
	}
	for i, idx := range domain {
		p.elements[idx] = i
		p.assign[i] = -1
	}
	return p
}

// Len returns the number of elements.
func (p *Partition) Len() int {
	return len(p.domain)
}

// Domain returns all the elements.
func (p *Partition) Domain() []Index {
	return p.domain
}

// Index returns the domain index of an element.
func (p *Partition) Index(elem int) Index {
	return p.domain[elem]
}

// Element returns the element number of an index.
func (p *Partition) Element(idx Index) (int, bool) {
	e, ok := p.elements[idx]
	return e, ok
}

// NewCluster creates an empty cluster and returns its id. The cluster
// should get a member before the next Validate call.
func (p *Partition) NewCluster() int {
	id := p.nextID
	p.nextID++
	p.clusters[id] = nil
	return id
}

// Assign puts an unassigned element into a cluster.
func (p *Partition) Assign(elem, cluster int) error {
	if elem < 0 || elem >= len(p.assign) {
		return fmt.Errorf("%w: no element %d", ErrInvalidPartition, elem)
	}
	if p.assign[elem] >= 0 {
		return fmt.Errorf("%w: element %v is already in cluster %d", ErrInvalidPartition, p.domain[elem], p.assign[elem])
	}
	members, ok := p.clusters[cluster]
	if !ok {
		return fmt.Errorf("%w: no cluster %d", ErrInvalidPartition, cluster)
	}
	i := sort.SearchInts(members, elem)
	members = append(members, 0)
	copy(members[i+1:], members[i:])
	members[i] = elem
	p.clusters[cluster] = members
	p.assign[elem] = cluster
	return nil
}

// Remove takes an element out of its cluster. Empty clusters are
// deleted. It returns the old cluster id and whether it was deleted.
func (p *Partition) Remove(elem int) (cluster int, deleted bool) {
	cluster = p.assign[elem]
	if cluster < 0 {
		return cluster, false
	}
	members := p.clusters[cluster]
	i := sort.SearchInts(members, elem)
	members = append(members[:i], members[i+1:]...)
	p.assign[elem] = -1
	if len(members) == 0 {
		delete(p.clusters, cluster)
		return cluster, true
	}
	p.clusters[cluster] = members
	return cluster, false
}

// ClusterOf returns the cluster of an element, -1 if it is
// unassigned.
func (p *Partition) ClusterOf(elem int) int {
	return p.assign[elem]
}

// Members returns sorted elements of a cluster. The slice should not
// be modified.
func (p *Partition) Members(cluster int) []int {
	return p.clusters[cluster]
}

// Size returns the number of cluster members.
func (p *Partition) Size(cluster int) int {
	return len(p.clusters[cluster])
}

// NClusters returns the number of clusters.
func (p *Partition) NClusters() int {
	return len(p.clusters)
}

// Clusters returns cluster ids in increasing order.
func (p *Partition) Clusters() []int {
	ids := make([]int, 0, len(p.clusters))
	for id := range p.clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Sizes returns cluster sizes in the cluster id order.
func (p *Partition) Sizes() []int {
	ids := p.Clusters()
	sizes := make([]int, len(ids))
	for i, id := range ids {
		sizes[i] = len(p.clusters[id])
	}
	return sizes
}

// Validate checks that every element belongs to exactly one non-empty
// cluster.
func (p *Partition) Validate() error {
	seen := make([]bool, len(p.domain))
	for _, id := range p.Clusters() {
		members := p.clusters[id]
		if len(members) == 0 {
			return fmt.Errorf("%w: cluster %d is empty", ErrInvalidPartition, id)
		}
		for _, e := range members {
			if seen[e] {
				return fmt.Errorf("%w: element %v is in several clusters", ErrInvalidPartition, p.domain[e])
			}
			if p.assign[e] != id {
				return fmt.Errorf("%w: element %v is assigned to %d, found in %d", ErrInvalidPartition, p.domain[e], p.assign[e], id)
			}
			seen[e] = true
		}
	}
	for e, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: element %v is unassigned", ErrInvalidPartition, p.domain[e])
		}
	}
	return nil
}

// Export returns clusters as index lists in the cluster id order.
func (p *Partition) Export() [][]Index {
	ids := p.Clusters()
	res := make([][]Index, len(ids))
	for i, id := range ids {
		members := p.clusters[id]
		res[i] = make([]Index, len(members))
		for j, e := range members {
			res[i][j] = p.domain[e]
		}
	}
	return res
}

// ImportPartition creates a partition from index lists. Every domain
// index should appear exactly once.
func ImportPartition(domain []Index, clusters [][]Index) (*Partition, error) {
	p := NewPartition(domain)
	for _, cl := range clusters {
		if len(cl) == 0 {
			continue
		}
		id := p.NewCluster()
		for _, idx := range cl {
			e, ok := p.elements[idx]
			if !ok {
				return nil, fmt.Errorf("%w: index %v is not in the domain", ErrInvalidPartition, idx)
			}
			if err := p.Assign(e, id); err != nil {
				return nil, err
			}
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
