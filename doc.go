// Package lookup is the client side entity lookup layer of a multi-tenant
// business application. It searches tenant scoped lookup endpoints, offers the
// results either as a modal picker or as inline suggestions under an input,
// and writes the chosen record into companion fields of the same form row.
//
// A Lookup is bound to one document:
//
//	doc, _ := dom.ParseString(page)
//	l := lookup.New(doc, lookup.WithModuleBase("https://erp.example/pos"), lookup.WithTenant("acme"))
//	l.Start()
//
// Start wires every input marked with data-lookup, keeps wiring rows added
// later and fires the lookup:ready event once. Inputs can also be bound
// explicitly with Bind, and the picker opened directly with Show.
package lookup
