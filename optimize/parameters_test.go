package optimize

import (
	"encoding/json"
	"testing"
)

// newParameters creates bounded parameters pointing to vals.
func newParameters(vals []float64, names ...string) (pars FloatParameters) {
	for i, name := range names {
		par := NewBasicFloatParameter(&vals[i], name)
		par.SetMin(-1)
		par.SetMax(10)
		pars.Append(par)
	}
	return
}

func TestParametersJSONOrder(tst *testing.T) {
	vals := []float64{2.5, 0, -0.125}
	pars := newParameters(vals, "scale", "w \"1\"", "w2")
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Fatal("Error encoding parameters:", err)
	}
	exp := `{"scale":2.5,"w \"1\"":0,"w2":-0.125}`
	if string(j) != exp {
		tst.Errorf("Wrong encoding, expected %s, got %s", exp, j)
	}
}

func TestParametersJSONRestore(tst *testing.T) {
	src := newParameters([]float64{3, 0.5, 9.75}, "scale", "w1", "w2")
	j, err := json.Marshal(src)
	if err != nil {
		tst.Fatal("Error encoding parameters:", err)
	}

	vals := []float64{1, 1, 1}
	dst := newParameters(vals, "w2", "scale", "w1")
	changed := 0
	for _, par := range dst {
		par.SetOnChange(func() { changed++ })
	}
	if err := json.Unmarshal(j, &dst); err != nil {
		tst.Fatal("Error decoding parameters:", err)
	}
	if vals[0] != 9.75 || vals[1] != 3 || vals[2] != 0.5 {
		tst.Error("Parameters restored by position instead of name:", vals)
	}
	if changed != 3 {
		tst.Errorf("Expected 3 change notifications, got %d", changed)
	}
}

func TestParametersJSONErrors(tst *testing.T) {
	vals := []float64{1, 1}
	pars := newParameters(vals, "a", "b")
	if err := json.Unmarshal([]byte(`{"a":2}`), &pars); err == nil {
		tst.Error("Missing parameter accepted")
	}
	if err := json.Unmarshal([]byte(`{"a":2,"b":11}`), &pars); err == nil {
		tst.Error("Out of range parameter accepted")
	}
	if vals[0] != 1 || vals[1] != 1 {
		tst.Error("Failed decoding changed parameters:", vals)
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &pars); err == nil {
		tst.Error("Array accepted")
	}
}
