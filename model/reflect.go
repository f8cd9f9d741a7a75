// Package model - Parameter-Bindung per Reflection
//
// Ein Feld mit tensor-Tag traegt einen Namensteil. Die Namensteile entlang
// des Feldpfads ergeben den Parameternamen im Backend, Slice-Elemente
// steuern ihren Index bei:
//
//	Adaptor.Fusion `tensor:"fusion"`
//	  .Layers[0] `tensor:"blk"`
//	    .Attention.Query `tensor:"attn_q"`
//	      .Weight `tensor:"weight"`   -> fusion.blk.0.attn_q.weight
//
// Felder ohne Tag (z.B. eingebettete Projection) reichen den Pfad weiter.

package model

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ollama/adaptor/logutil"
	"github.com/ollama/adaptor/ml"
)

var (
	tensorType = reflect.TypeFor[ml.Tensor]()
	baseType   = reflect.TypeFor[Base]()
)

// binder setzt Tensor-Felder eines Modells aus einem Backend
type binder struct {
	base  Base
	bound int
}

// tensorName liefert den Namensteil eines Feldes, Optionen nach dem Komma
// werden ignoriert
func tensorName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("tensor"), ",")
	return name
}

// bindStruct bindet alle setzbaren Felder von v und meldet, ob darunter
// mindestens ein Parameter gefunden wurde
func (bd *binder) bindStruct(v reflect.Value, path []string) bool {
	found := false
	t := v.Type()
	for i := range t.NumField() {
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := path
		if name := tensorName(t.Field(i)); name != "" {
			fieldPath = append(slices.Clone(path), name)
		}

		if bd.bindValue(fv, fieldPath) {
			found = true
		}
	}
	return found
}

func (bd *binder) bindValue(v reflect.Value, path []string) bool {
	switch v.Type() {
	case baseType:
		v.Set(reflect.ValueOf(bd.base))
		return false
	case tensorType:
		name := strings.Join(path, ".")
		t := bd.base.Backend().Get(name)
		if t == nil {
			return false
		}

		logutil.Trace("bound parameter", "name", name, "shape", t.Shape())
		v.Set(reflect.ValueOf(t))
		bd.bound++
		return true
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.Type().Elem().Kind() != reflect.Struct {
			return false
		}

		// nil-Zeiger werden nur gesetzt, wenn ihr Teilbaum Parameter hat,
		// z.B. bleibt ein Linear ohne Gewichte nil
		target := v
		if v.IsNil() {
			target = reflect.New(v.Type().Elem())
		}

		if !bd.bindStruct(target.Elem(), path) {
			return false
		}
		v.Set(target)
		return true
	case reflect.Struct:
		return bd.bindStruct(v, path)
	case reflect.Slice, reflect.Array:
		found := false
		for i := range v.Len() {
			if bd.bindValue(v.Index(i), append(slices.Clone(path), strconv.Itoa(i))) {
				found = true
			}
		}
		return found
	default:
		return false
	}
}
