package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Call names one Engine method, for fault injection and call accounting.
type Call string

const (
	CallCreateNetwork            Call = "CreateNetwork"
	CallRenameNetwork            Call = "RenameNetwork"
	CallCreateNode               Call = "CreateNode"
	CallRenameNode               Call = "RenameNode"
	CallRemoveNode               Call = "RemoveNode"
	CallSetStates                Call = "SetStates"
	CallSetSimulated             Call = "SetSimulated"
	CallAddChildEdge             Call = "AddChildEdge"
	CallRemoveEdge               Call = "RemoveEdge"
	CallAddExpressionVariable    Call = "AddExpressionVariable"
	CallRemoveExpressionVariable Call = "RemoveExpressionVariable"
	CallSetExpression            Call = "SetExpression"
	CallSetManualTable           Call = "SetManualTable"
	CallGetTable                 Call = "GetTable"
	CallMarkConnectableInput     Call = "MarkConnectableInput"
	CallMarkConnectableOutput    Call = "MarkConnectableOutput"
)

var (
	ErrUnknownHandle = errors.New("unknown handle")
	ErrTableShape    = errors.New("table shape does not match node states and parents")
)

// Variable is an expression variable as stored by the memory engine.
type Variable struct {
	Name  string
	Value float64
}

type memNode struct {
	network     uint64
	kind        Kind
	name        string
	states      []StateSpec
	simulated   bool
	variables   map[uint64]Variable
	function    FunctionSpec
	table       [][]float64
	parentOrder []NodeHandle
	input       bool
	output      bool
}

type fault struct {
	err    error
	always bool
}

// Memory is an in-process Engine that records everything it is told. It performs
// no propagation; it exists so the modeling layer can be exercised and inspected
// without a real engine.
type Memory struct {
	mu       sync.Mutex
	nextID   uint64
	networks map[uint64]string
	nodes    map[uint64]*memNode
	edges    map[[2]uint64]struct{}
	faults   map[Call]fault
	calls    map[Call]int
	latency  time.Duration
}

// NewMemory creates an empty memory engine.
func NewMemory() *Memory {
	return &Memory{
		networks: make(map[uint64]string),
		nodes:    make(map[uint64]*memNode),
		edges:    make(map[[2]uint64]struct{}),
		faults:   make(map[Call]fault),
		calls:    make(map[Call]int),
	}
}

// FailOn makes the next invocation of call return err.
func (m *Memory) FailOn(call Call, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[call] = fault{err: err}
}

// FailAlways makes every invocation of call return err until ClearFaults.
func (m *Memory) FailAlways(call Call, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[call] = fault{err: err, always: true}
}

// ClearFaults removes all injected failures.
func (m *Memory) ClearFaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = make(map[Call]fault)
}

// SetLatency delays every call by d.
func (m *Memory) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// CallCount returns how many times call was invoked.
func (m *Memory) CallCount(call Call) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[call]
}

// enter must be called with m.mu held.
func (m *Memory) enter(call Call) error {
	m.calls[call]++
	if m.latency > 0 {
		time.Sleep(m.latency)
	}
	if f, ok := m.faults[call]; ok {
		if !f.always {
			delete(m.faults, call)
		}
		return fmt.Errorf("engine %s: %w", call, f.err)
	}
	return nil
}

func (m *Memory) node(call Call, h NodeHandle) (*memNode, error) {
	n, ok := m.nodes[h.id]
	if !ok {
		return nil, fmt.Errorf("engine %s: %s: %w", call, h, ErrUnknownHandle)
	}
	return n, nil
}

func (m *Memory) CreateNetwork(name string) (NetworkHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallCreateNetwork); err != nil {
		return NetworkHandle{}, err
	}
	m.nextID++
	m.networks[m.nextID] = name
	return NetworkHandle{id: m.nextID}, nil
}

func (m *Memory) RenameNetwork(h NetworkHandle, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallRenameNetwork); err != nil {
		return err
	}
	if _, ok := m.networks[h.id]; !ok {
		return fmt.Errorf("engine %s: %s: %w", CallRenameNetwork, h, ErrUnknownHandle)
	}
	m.networks[h.id] = name
	return nil
}

func (m *Memory) CreateNode(network NetworkHandle, kind Kind, name string) (NodeHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallCreateNode); err != nil {
		return NodeHandle{}, err
	}
	if _, ok := m.networks[network.id]; !ok {
		return NodeHandle{}, fmt.Errorf("engine %s: %s: %w", CallCreateNode, network, ErrUnknownHandle)
	}
	m.nextID++
	m.nodes[m.nextID] = &memNode{
		network:   network.id,
		kind:      kind,
		name:      name,
		variables: make(map[uint64]Variable),
	}
	return NodeHandle{id: m.nextID}, nil
}

func (m *Memory) RenameNode(h NodeHandle, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallRenameNode); err != nil {
		return err
	}
	n, err := m.node(CallRenameNode, h)
	if err != nil {
		return err
	}
	n.name = name
	return nil
}

func (m *Memory) RemoveNode(h NodeHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallRemoveNode); err != nil {
		return err
	}
	if _, err := m.node(CallRemoveNode, h); err != nil {
		return err
	}
	for e := range m.edges {
		if e[0] == h.id || e[1] == h.id {
			delete(m.edges, e)
		}
	}
	delete(m.nodes, h.id)
	return nil
}

func (m *Memory) SetStates(h NodeHandle, states []StateSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallSetStates); err != nil {
		return err
	}
	n, err := m.node(CallSetStates, h)
	if err != nil {
		return err
	}
	n.states = append([]StateSpec(nil), states...)
	return nil
}

func (m *Memory) SetSimulated(h NodeHandle, simulated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallSetSimulated); err != nil {
		return err
	}
	n, err := m.node(CallSetSimulated, h)
	if err != nil {
		return err
	}
	n.simulated = simulated
	if simulated {
		n.states = nil
	}
	return nil
}

func (m *Memory) AddChildEdge(parent, child NodeHandle) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallAddChildEdge); err != nil {
		return false, err
	}
	if _, err := m.node(CallAddChildEdge, parent); err != nil {
		return false, err
	}
	if _, err := m.node(CallAddChildEdge, child); err != nil {
		return false, err
	}
	key := [2]uint64{parent.id, child.id}
	if _, exists := m.edges[key]; exists || parent == child {
		return false, nil
	}
	m.edges[key] = struct{}{}
	return true, nil
}

func (m *Memory) RemoveEdge(parent, child NodeHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallRemoveEdge); err != nil {
		return err
	}
	delete(m.edges, [2]uint64{parent.id, child.id})
	return nil
}

func (m *Memory) AddExpressionVariable(h NodeHandle, name string, defaultValue float64) (VariableHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallAddExpressionVariable); err != nil {
		return VariableHandle{}, err
	}
	n, err := m.node(CallAddExpressionVariable, h)
	if err != nil {
		return VariableHandle{}, err
	}
	m.nextID++
	n.variables[m.nextID] = Variable{Name: name, Value: defaultValue}
	return VariableHandle{id: m.nextID}, nil
}

func (m *Memory) RemoveExpressionVariable(h NodeHandle, v VariableHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallRemoveExpressionVariable); err != nil {
		return err
	}
	n, err := m.node(CallRemoveExpressionVariable, h)
	if err != nil {
		return err
	}
	delete(n.variables, v.id)
	return nil
}

func (m *Memory) SetExpression(h NodeHandle, fn FunctionSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallSetExpression); err != nil {
		return err
	}
	n, err := m.node(CallSetExpression, h)
	if err != nil {
		return err
	}
	n.function = FunctionSpec{
		Expression:       fn.Expression,
		PartitionParents: append([]NodeHandle(nil), fn.PartitionParents...),
		Partitions:       append([]string(nil), fn.Partitions...),
	}
	n.table = nil
	return nil
}

func (m *Memory) SetManualTable(h NodeHandle, matrix [][]float64, parentOrder []NodeHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallSetManualTable); err != nil {
		return err
	}
	n, err := m.node(CallSetManualTable, h)
	if err != nil {
		return err
	}

	columns := 1
	for _, p := range parentOrder {
		pn, err := m.node(CallSetManualTable, p)
		if err != nil {
			return err
		}
		columns *= len(pn.states)
	}
	if len(matrix) != len(n.states) {
		return fmt.Errorf("engine %s: %d rows for %d states: %w", CallSetManualTable, len(matrix), len(n.states), ErrTableShape)
	}
	table := make([][]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != columns {
			return fmt.Errorf("engine %s: row %d has %d columns, want %d: %w", CallSetManualTable, i, len(row), columns, ErrTableShape)
		}
		table[i] = append([]float64(nil), row...)
	}
	n.table = table
	n.parentOrder = append([]NodeHandle(nil), parentOrder...)
	n.function = FunctionSpec{}
	return nil
}

func (m *Memory) GetTable(h NodeHandle) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallGetTable); err != nil {
		return nil, err
	}
	n, err := m.node(CallGetTable, h)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(n.table))
	for i, row := range n.table {
		out[i] = append([]float64(nil), row...)
	}
	return out, nil
}

func (m *Memory) MarkConnectableInput(h NodeHandle, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallMarkConnectableInput); err != nil {
		return err
	}
	n, err := m.node(CallMarkConnectableInput, h)
	if err != nil {
		return err
	}
	n.input = on
	return nil
}

func (m *Memory) MarkConnectableOutput(h NodeHandle, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(CallMarkConnectableOutput); err != nil {
		return err
	}
	n, err := m.node(CallMarkConnectableOutput, h)
	if err != nil {
		return err
	}
	n.output = on
	return nil
}

var _ Engine = (*Memory)(nil)

// NodeView is a copy of everything the memory engine knows about a node.
type NodeView struct {
	Name              string
	Network           string
	Kind              Kind
	States            []StateSpec
	Simulated         bool
	Variables         []Variable // sorted by name
	Function          FunctionSpec
	Table             [][]float64
	ConnectableInput  bool
	ConnectableOutput bool
}

// Node returns a snapshot of a node.
func (m *Memory) Node(h NodeHandle) (NodeView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[h.id]
	if !ok {
		return NodeView{}, false
	}
	vars := make([]Variable, 0, len(n.variables))
	for _, v := range n.variables {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })

	table := make([][]float64, len(n.table))
	for i, row := range n.table {
		table[i] = append([]float64(nil), row...)
	}
	return NodeView{
		Name:              n.name,
		Network:           m.networks[n.network],
		Kind:              n.kind,
		States:            append([]StateSpec(nil), n.states...),
		Simulated:         n.simulated,
		Variables:         vars,
		Function:          n.function,
		Table:             table,
		ConnectableInput:  n.input,
		ConnectableOutput: n.output,
	}, true
}

// HasEdge reports whether the engine holds the edge parent -> child.
func (m *Memory) HasEdge(parent, child NodeHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[[2]uint64{parent.id, child.id}]
	return ok
}

// EdgeCount returns the number of edges held.
func (m *Memory) EdgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edges)
}

// NodeCount returns the number of nodes held.
func (m *Memory) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}
