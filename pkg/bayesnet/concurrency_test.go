package bayesnet

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentLinking(t *testing.T) {
	m, mem := newTestModel(t)

	var nodes []*Node
	for i := 0; i < 3; i++ {
		net := mustNetwork(t, m, fmt.Sprintf("Net%d", i))
		for j := 0; j < 6; j++ {
			nodes = append(nodes, mustNode(t, net, fmt.Sprintf("N%d", j), Labelled))
		}
	}

	const workers = 8
	var wg sync.WaitGroup
	var unexpected atomic.Int64
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 60; i++ {
				from := nodes[rng.Intn(len(nodes))]
				to := nodes[rng.Intn(len(nodes))]
				var err error
				switch {
				case rng.Intn(4) == 0:
					_, err = m.UnlinkNodes(from, to)
				case from.Network() == to.Network():
					_, err = m.LinkNodes(from, to, nil)
				default:
					_, err = m.LinkNodes(from, to, CrossNetwork{Type: PassMarginals})
				}
				var le *LinkError
				if err != nil && (!errors.As(err, &le) || le.Reason == ReasonEngine) {
					unexpected.Add(1)
				}
			}
		}(int64(w))
	}

	// readers snapshot while the writers run
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				n := nodes[i%len(nodes)]
				_ = n.Ancestors()
				_ = n.Descendants()
				_ = n.Table()
				_ = n.Network().Descendants()
				_ = m.Links()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, unexpected.Load())

	_, err := m.TopologicalOrder()
	require.NoError(t, err)
	for _, net := range m.Networks() {
		_, err := net.TopologicalOrder()
		require.NoError(t, err, net.ID())
	}

	links := m.Links()
	assert.Equal(t, len(links), mem.EdgeCount())
	for _, l := range links {
		assert.True(t, mem.HasEdge(l.From().handle, l.To().handle), l.String())
	}
	for _, n := range nodes {
		cross := 0
		for _, l := range n.IncomingLinks() {
			if l.CrossNetwork() {
				cross++
			}
		}
		assert.LessOrEqual(t, cross, 1, n.String())
		in, _ := n.Connectable()
		assert.Equal(t, cross == 1, in, n.String())
	}
}

func TestConcurrentCreateSameIdentifier(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")

	const goroutines = 16
	var wg sync.WaitGroup
	var created, duplicates atomic.Int64
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "Shared"
			if i%2 == 1 {
				id = "shared"
			}
			_, err := net.CreateNode(id, Boolean)
			switch {
			case err == nil:
				created.Add(1)
			case IsDuplicateID(err):
				duplicates.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(goroutines-1), duplicates.Load())
	assert.Len(t, net.Nodes(), 1)
	assert.Equal(t, 1, mem.NodeCount())
}

// Models share the registry lock family but not identifiers.
func TestConcurrentModels(t *testing.T) {
	const models = 4
	var wg sync.WaitGroup
	errs := make([]error, models)
	for i := 0; i < models; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _ := newTestModel(t)
			net, err := m.CreateNetwork("Same")
			if err != nil {
				errs[i] = err
				return
			}
			var prev *Node
			for j := 0; j < 20; j++ {
				n, err := net.CreateNode(fmt.Sprintf("Node%d", j), Boolean)
				if err != nil {
					errs[i] = err
					return
				}
				if prev != nil {
					if _, err := m.LinkNodes(prev, n, nil); err != nil {
						errs[i] = err
						return
					}
				}
				prev = n
			}
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "model %d", i)
	}
}
