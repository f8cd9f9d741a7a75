// Package model - Model-Interface und Parameter-Bindung
//
// Dieses Paket verbindet Modell-Strukturen mit den Parametern eines
// ml.Backend.
//
// Hauptkomponenten:
// - Model: Interface fuer alle Modell-Architekturen
// - Base: Basis-Implementierung fuer gemeinsame Funktionalitaet
// - Declarer: Modelle deklarieren ihre Parameter vor der Allokation
// - Bind: Allokiert, befuellt und validiert ein Modell

package model

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ollama/adaptor/ml"
)

// Model definiert das Interface fuer Modell-Architekturen
type Model interface {
	Backend() ml.Backend
}

// Declarer ist ein optionales Interface: das Modell listet alle Parameter,
// die vor dem Befuellen allokiert werden muessen
type Declarer interface {
	Declare() Manifest
}

// Validator ist ein optionales Interface fuer Post-Load-Validierung
type Validator interface {
	Validate() error
}

// Base implementiert gemeinsame Felder und Methoden fuer alle Modelle
type Base struct {
	b ml.Backend
}

// Backend gibt das Backend zurueck, das das Modell ausfuehrt
func (m *Base) Backend() ml.Backend {
	return m.b
}

// Bind allokiert die deklarierten Parameter von m in b, setzt alle
// Tensor-Felder anhand ihrer tensor-Tags und ruft danach Validate auf.
// m muss ein Pointer auf eine Struktur sein.
func Bind(b ml.Backend, m Model) error {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("model: cannot bind %T", m)
	}

	if d, ok := m.(Declarer); ok {
		manifest := d.Declare()
		if err := b.Allocate(manifest...); err != nil {
			return fmt.Errorf("model: allocate: %w", err)
		}
		slog.Debug("allocated parameters", "count", len(manifest), "elements", manifest.Elements())
	}

	bd := &binder{base: Base{b: b}}
	bd.bindStruct(v.Elem(), nil)
	slog.Debug("bound parameters", "model", reflect.TypeOf(m).Elem().Name(), "count", bd.bound)

	if validator, ok := m.(Validator); ok {
		if err := validator.Validate(); err != nil {
			return err
		}
	}

	return nil
}
