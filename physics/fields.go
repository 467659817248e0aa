package physics

import "reflect"

// FieldRange names the valid range for one adjustable invariant.
// Each Min matches the lower bound Clamp enforces. Max is an upper
// bound that SetFieldByName applies; Clamp enforces the same upper
// bound only for the two wallrun dot fields.
type FieldRange struct {
	Min, Max float64
}

// adjustableFloatFields lists the invariants autotune may adjust,
// keyed by their wire name, with the range SetFieldByName clamps
// writes to. Booleans and derived-only concerns are deliberately
// excluded — spec.md §4.H.4 restricts autotune to authored invariants.
var adjustableFloatFields = map[string]FieldRange{
	"max_ground_speed":             {Min: 0.01, Max: 1000},
	"run_t90":                      {Min: 0, Max: 10},
	"ground_stop_t90":              {Min: 0, Max: 10},
	"air_speed_mult":               {Min: 1.0, Max: 10},
	"air_gain_t90":                 {Min: 0, Max: 10},
	"jump_height":                  {Min: 0, Max: 20},
	"jump_apex_time":               {Min: minApexTime, Max: 5},
	"slide_stop_t90":               {Min: 0, Max: 10},
	"wallrun_sink_t90":             {Min: 0, Max: 10},
	"grace_period":                 {Min: 0, Max: 2},
	"grace_distance":               {Min: 0, Max: 20},
	"wallrun_min_entry_speed_mult": {Min: 0, Max: 5},
	"wallrun_min_approach_dot":     {Min: -1, Max: 1},
	"wallrun_min_parallel_dot":     {Min: -1, Max: 1},
}

// FieldByName reads an adjustable float field's current value by its
// wire name.
func (t Tuning) FieldByName(name string) (float64, bool) {
	v := reflect.ValueOf(t)
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Tag.Get("json") == name && f.Type.Kind() == reflect.Float64 {
			return v.Field(i).Float(), true
		}
	}
	return 0, false
}

// SetFieldByName writes an adjustable float field by its wire name,
// clamping to the field's registered range. Returns false for unknown
// or non-adjustable field names.
func (t *Tuning) SetFieldByName(name string, value float64) bool {
	rng, ok := adjustableFloatFields[name]
	if !ok {
		return false
	}
	value = vclamp(value, rng.Min, rng.Max)

	v := reflect.ValueOf(t).Elem()
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Tag.Get("json") == name && f.Type.Kind() == reflect.Float64 {
			v.Field(i).SetFloat(value)
			return true
		}
	}
	return false
}

// AdjustableFieldNames returns every field name autotune is allowed
// to touch.
func AdjustableFieldNames() []string {
	names := make([]string, 0, len(adjustableFloatFields))
	for n := range adjustableFloatFields {
		names = append(names, n)
	}
	return names
}

// AsMap snapshots every authored field into a wire map, the shape
// demo metadata and backups store.
func (t Tuning) AsMap() map[string]any {
	out := map[string]any{}
	v := reflect.ValueOf(t)
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := f.Tag.Get("json")
		if name == "" {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Float64:
			out[name] = fv.Float()
		case reflect.Bool:
			out[name] = fv.Bool()
		}
	}
	return out
}

// FromMap overlays wire-named fields from m onto t, ignoring unknown
// keys and type mismatches — the same forgiving merge the demo
// metadata loader needs when replaying an older recording.
func (t *Tuning) FromMap(m map[string]any) {
	v := reflect.ValueOf(t).Elem()
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := f.Tag.Get("json")
		if name == "" {
			continue
		}
		raw, ok := m[name]
		if !ok {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Float64:
			switch n := raw.(type) {
			case float64:
				fv.SetFloat(n)
			case int:
				fv.SetFloat(float64(n))
			}
		case reflect.Bool:
			if b, ok := raw.(bool); ok {
				fv.SetBool(b)
			}
		}
	}
}
