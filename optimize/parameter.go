package optimize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FloatParameter is a real-valued model parameter. It points to the
// value stored in the model.
type FloatParameter interface {
	Name() string
	Prior() float64
	OldPrior() float64
	Propose()
	Accept(int)
	Reject()
	String() string
	SetMin(float64)
	SetMax(float64)
	GetMin() float64
	GetMax() float64
	SetOnChange(func())
	SetProposalFunc(func(float64) float64)
	SetPriorFunc(func(float64) float64)
	Get() float64
	Set(float64)
	InRange() bool
	ValueInRange(float64) bool
}

// FloatParameters is a list of parameters.
type FloatParameters []FloatParameter

// Append adds a parameter.
func (p *FloatParameters) Append(par FloatParameter) {
	*p = append(*p, par)
}

// Names returns parameter names.
func (p FloatParameters) Names() (s []string) {
	s = make([]string, len(p))
	for i, par := range p {
		s[i] = par.Name()
	}
	return
}

// Values returns parameter values. If v is not nil it is reused.
func (p FloatParameters) Values(v []float64) []float64 {
	if len(v) != len(p) {
		v = make([]float64, len(p))
	}
	for i, par := range p {
		v[i] = par.Get()
	}
	return v
}

// ValuesInRange checks if all the values are within parameter limits.
func (p FloatParameters) ValuesInRange(vals []float64) bool {
	if len(vals) != len(p) {
		panic("Incorrect number of parameters")
	}
	for i, par := range p {
		if !par.ValueInRange(vals[i]) {
			return false
		}
	}
	return true
}

// SetValues sets all the parameter values.
func (p FloatParameters) SetValues(v []float64) error {
	if len(v) != len(p) {
		return fmt.Errorf("incorrect number of parameters: %d != %d", len(v), len(p))
	}
	for i, par := range p {
		par.Set(v[i])
	}
	return nil
}

// InRange is true if all the parameters are within their limits.
func (p FloatParameters) InRange() bool {
	for _, par := range p {
		if !par.InRange() {
			return false
		}
	}
	return true
}

// NamesString returns tab-separated names.
func (p FloatParameters) NamesString() (s string) {
	for i, par := range p {
		if i != 0 {
			s += "\t"
		}
		s += par.Name()
	}
	return
}

// ValuesString returns tab-separated values.
func (p FloatParameters) ValuesString() (s string) {
	for i, par := range p {
		if i != 0 {
			s += "\t"
		}
		s += par.String()
	}
	return
}

// MarshalJSON encodes parameters as an object, keeping the parameter
// order.
func (p FloatParameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, par := range p {
		if i != 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(par.Name())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(par.Get())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON sets parameter values by name. Every parameter should
// be present and within its limits; nothing is set otherwise.
func (p *FloatParameters) UnmarshalJSON(data []byte) error {
	values := make(map[string]float64, len(*p))
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	for _, par := range *p {
		v, ok := values[par.Name()]
		if !ok {
			return fmt.Errorf("parameter %s is missing", par.Name())
		}
		if !par.ValueInRange(v) {
			return fmt.Errorf("parameter %s=%v is out of range [%v, %v]", par.Name(), v, par.GetMin(), par.GetMax())
		}
	}
	for _, par := range *p {
		par.Set(values[par.Name()])
	}
	return nil
}

// BasicFloatParameter is a parameter with a prior, a proposal
// function and limits. Proposals outside of the limits are reflected.
type BasicFloatParameter struct {
	*float64
	old          float64
	name         string
	priorFunc    func(float64) float64
	proposalFunc func(float64) float64
	min          float64
	max          float64
	onChange     func()
}

// NewBasicFloatParameter creates an unbounded parameter with a flat
// prior. A proposal function has to be set before sampling.
func NewBasicFloatParameter(par *float64, name string) *BasicFloatParameter {
	return &BasicFloatParameter{
		float64:   par,
		name:      name,
		priorFunc: func(float64) float64 { return 0 },
		min:       math.Inf(-1),
		max:       math.Inf(+1),
	}
}

// SetMin sets the lower limit.
func (p *BasicFloatParameter) SetMin(min float64) {
	p.min = min
}

// SetMax sets the upper limit.
func (p *BasicFloatParameter) SetMax(max float64) {
	p.max = max
}

// SetPriorFunc sets the log-prior.
func (p *BasicFloatParameter) SetPriorFunc(f func(float64) float64) {
	p.priorFunc = f
}

// SetProposalFunc sets the proposal.
func (p *BasicFloatParameter) SetProposalFunc(f func(float64) float64) {
	p.proposalFunc = f
}

// SetOnChange sets a function called after every value change.
func (p *BasicFloatParameter) SetOnChange(f func()) {
	p.onChange = f
}

func (p *BasicFloatParameter) Get() float64 {
	return *p.float64
}

func (p *BasicFloatParameter) Set(v float64) {
	if *p.float64 == v {
		return
	}
	*p.float64 = v
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) GetMin() float64 {
	return p.min
}

func (p *BasicFloatParameter) GetMax() float64 {
	return p.max
}

func (p *BasicFloatParameter) ValueInRange(v float64) bool {
	return v >= p.min && v <= p.max
}

func (p *BasicFloatParameter) InRange() bool {
	return p.ValueInRange(*p.float64)
}

func (p *BasicFloatParameter) Name() string {
	return p.name
}

// Prior returns the log-prior of the current value.
func (p *BasicFloatParameter) Prior() float64 {
	return p.priorFunc(*p.float64)
}

// OldPrior returns the log-prior of the value before the proposal.
func (p *BasicFloatParameter) OldPrior() float64 {
	return p.priorFunc(p.old)
}

func (p *BasicFloatParameter) reflect() {
	for *p.float64 < p.min || *p.float64 > p.max {
		if *p.float64 < p.min {
			*p.float64 = p.min + (p.min - *p.float64)
		}
		if *p.float64 > p.max {
			*p.float64 = p.max - (*p.float64 - p.max)
		}
	}
}

// Propose replaces the value by a proposed one.
func (p *BasicFloatParameter) Propose() {
	if p.proposalFunc == nil {
		panic("no proposal function for " + p.name)
	}
	p.old, *p.float64 = *p.float64, p.proposalFunc(*p.float64)
	p.reflect()
	if p.onChange != nil {
		p.onChange()
	}
}

// Reject restores the value before the proposal.
func (p *BasicFloatParameter) Reject() {
	*p.float64, p.old = p.old, *p.float64
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) Accept(iter int) {
}

func (p *BasicFloatParameter) String() string {
	return strconv.FormatFloat(*p.float64, 'f', 6, 64)
}
