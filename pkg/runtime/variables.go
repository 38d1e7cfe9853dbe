package runtime

import "maps"

// HasVariable reports whether the variable is visible from e, locally or
// through its ancestors.
func (e *Execution) HasVariable(name string) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.variables[name]; ok {
			return true
		}
	}
	return false
}

// Variable resolves a variable through the parent chain. The nearest
// definition wins.
func (e *Execution) Variable(name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetVariable writes to e's local store. Ancestors are never modified, so
// concurrent branches cannot overwrite each other's view of shared state.
func (e *Execution) SetVariable(name string, value any) {
	e.variables[name] = value
}

// SetVariables writes every entry to the local store.
func (e *Execution) SetVariables(vars map[string]any) {
	maps.Copy(e.variables, vars)
}

// Variables returns every visible variable; local values shadow inherited ones.
func (e *Execution) Variables() map[string]any {
	out := make(map[string]any)
	e.collectVariables(out)
	return out
}

func (e *Execution) collectVariables(out map[string]any) {
	if e.parent != nil {
		e.parent.collectVariables(out)
	}
	maps.Copy(out, e.variables)
}

// HasVariableLocal reports whether the variable is set on e itself.
func (e *Execution) HasVariableLocal(name string) bool {
	_, ok := e.variables[name]
	return ok
}

// VariablesLocal returns a copy of e's own variables.
func (e *Execution) VariablesLocal() map[string]any {
	return maps.Clone(e.variables)
}

// RemoveVariableLocal deletes a variable from e's own store.
func (e *Execution) RemoveVariableLocal(name string) {
	delete(e.variables, name)
}
