// Package selector grounds its interface shape on
// original_source/viu/libs/selectors/base.go's BaseSelector ABC
// (choose/choose_multiple/confirm/ask/search), translated to Go's
// accept-interfaces idiom: menu handlers depend on the narrow
// menu.Selector contract, while Exec is one concrete implementation
// among possibly several.
package selector
