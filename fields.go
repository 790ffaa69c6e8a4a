package xrec

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// fields.go bridges struct fields and persisted columns so that a model's
// Record methods can be one-liners:
//
//	func (p *Player) PersistedValues() map[string]Value    { return Values(p) }
//	func (p *Player) SetValue(c string, v Value) error     { return SetField(p, c, v) }
//
// Fields bind by `db:"name"` first; otherwise the case-insensitive field
// name. `db:"-"` omits a field, `db:",inline"` flattens a nested struct.
// Unexported fields (such as the state inside an embedded [Tracking]) are
// ignored.

var structIndexCache sync.Map // key: reflect.Type -> *fieldIndex

type fieldIndex struct {
	byName map[string][]int // lower-case column name -> index path
	order  []string         // column names in field declaration order
}

func structIndex(rt reflect.Type) *fieldIndex {
	if v, ok := structIndexCache.Load(rt); ok {
		return v.(*fieldIndex)
	}
	fi := buildStructIndex(rt)
	structIndexCache.Store(rt, &fi)
	return &fi
}

func buildStructIndex(rt reflect.Type) fieldIndex {
	idx := fieldIndex{byName: make(map[string][]int)}

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		t = derefPtr(t)
		if t.Kind() != reflect.Struct {
			return
		}
		n := t.NumField()
		for i := 0; i < n; i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			ft := sf.Type
			path := append(append([]int(nil), base...), i)

			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if isStruct(ft) || (ft.Kind() == reflect.Ptr && isStruct(ft.Elem())) {
					walk(ft, path, inline)
					continue
				}
			}
			if sf.PkgPath != "" {
				continue // anonymous but unexported
			}
			if name == "" {
				name = sf.Name
			}
			lc := toLowerAscii(name)
			if _, ok := idx.byName[lc]; !ok {
				idx.byName[lc] = path
				idx.order = append(idx.order, lc)
			}
		}
	}
	walk(rt, nil, false)
	return idx
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return "", false, false
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

func isStruct(t reflect.Type) bool { return derefPtr(t).Kind() == reflect.Struct }

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Values extracts a model's bound fields as a persisted-column dictionary.
// A nil pointer field becomes NULL. Values panics when model is not a
// struct (or pointer to one) or a field holds a type [ValueOf] rejects;
// both are programmer errors in the model's shape, not runtime conditions.
func Values(model any) map[string]Value {
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			panic("xrec: Values: nil model")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		panic(fmt.Sprintf("xrec: Values: %T is not a struct", model))
	}
	idx := structIndex(rv.Type())
	out := make(map[string]Value, len(idx.order))
	for _, name := range idx.order {
		fv, ok := fieldByPath(rv, idx.byName[name])
		if !ok {
			out[name] = Null // nil pointer along the path
			continue
		}
		v, err := ValueOf(fv.Interface())
		if err != nil {
			panic(fmt.Sprintf("xrec: Values: column %q: %v", name, err))
		}
		out[name] = v
	}
	return out
}

// SetField assigns a database value into the model field bound to column,
// matching case-insensitively. Unknown columns are ignored (a wider fetch
// than the model is not an error, mirroring how extra columns never dirty a
// record). A value that cannot convert to the field's type returns an
// error naming the column.
func SetField(model any, column string, v Value) error {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("xrec: SetField: model must be a non-nil pointer, got %T", model)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("xrec: SetField: %T is not a struct pointer", model)
	}
	idx := structIndex(rv.Type())
	path, ok := idx.byName[toLowerAscii(column)]
	if !ok {
		return nil
	}
	fv := fieldByPathAlloc(rv, path)
	if err := assignValue(fv, v); err != nil {
		return fmt.Errorf("xrec: column %q: %w", column, err)
	}
	return nil
}

// Apply populates a model from a row: every row column the model binds is
// assigned via [SetField]; for duplicate column names the first entry wins.
// The first conversion failure aborts and is returned.
func Apply(model any, row *Row) error {
	applied := make(map[string]struct{}, row.Len())
	for name, v := range row.All() {
		lc := toLowerAscii(name)
		if _, dup := applied[lc]; dup {
			continue
		}
		applied[lc] = struct{}{}
		if err := SetField(model, name, v); err != nil {
			return err
		}
	}
	return nil
}

// ---------------- Field access & assignment ----------------

// fieldByPath walks fpath without allocating; ok=false when a nil pointer
// interrupts the walk.
func fieldByPath(root reflect.Value, fpath []int) (reflect.Value, bool) {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v, true
}

// fieldByPathAlloc walks fpath, allocating nil pointers so the final field
// is addressable.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// assignValue converts v into the field. Pointer fields become nil on NULL
// and are allocated otherwise. A field implementing sql.Scanner receives
// the bind form of v.
func assignValue(fv reflect.Value, v Value) error {
	if fv.Kind() == reflect.Ptr {
		if v.IsNull() {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return assignValue(fv.Elem(), v)
	}
	if fv.CanAddr() && fv.Addr().Type().Implements(scannerType) {
		return fv.Addr().Interface().(sql.Scanner).Scan(v.Arg())
	}
	if v.IsNull() {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	switch fv.Kind() {
	case reflect.Bool:
		b, ok := v.Bool()
		if !ok {
			return convErr(v, "bool")
		}
		fv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.Int64()
		if !ok || fv.OverflowInt(n) {
			return convErr(v, fv.Kind().String())
		}
		fv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.Int64()
		if !ok || n < 0 || fv.OverflowUint(uint64(n)) {
			return convErr(v, fv.Kind().String())
		}
		fv.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := v.Float64()
		if !ok {
			return convErr(v, fv.Kind().String())
		}
		fv.SetFloat(f)
		return nil
	case reflect.String:
		s, ok := v.TextValue()
		if !ok {
			return convErr(v, "string")
		}
		fv.SetString(s)
		return nil
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			if b, ok := v.BlobValue(); ok {
				fv.SetBytes(b)
				return nil
			}
			if s, ok := v.TextValue(); ok {
				fv.SetBytes([]byte(s))
				return nil
			}
			return convErr(v, "[]byte")
		}
	case reflect.Struct:
		if fv.Type() == reflect.TypeOf(time.Time{}) {
			t, ok := v.Time()
			if !ok {
				return convErr(v, "time.Time")
			}
			fv.Set(reflect.ValueOf(t))
			return nil
		}
	}
	return fmt.Errorf("unsupported field type %s", fv.Type())
}

func convErr(v Value, want string) error {
	return fmt.Errorf("cannot convert %s value to %s", v.Kind(), want)
}
