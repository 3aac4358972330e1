package compute

import (
	"encoding/json"

	"github.com/cosmian/scs/transport"
)

// View is a server-side view definition. The schema of a view definition
// evolves with the server, so it is kept as an open bag of fields keyed by
// name; Name is the only field the client itself relies on.
type View map[string]json.RawMessage

// Name returns the view's name, or "" when the definition carries none.
func (v View) Name() string {
	var name string
	if raw, ok := v["name"]; ok {
		json.Unmarshal(raw, &name)
	}
	return name
}

// Views manages the view definitions held by one server.
type Views struct {
	ctx *transport.Context
}

// List returns all the views on the server.
func (v *Views) List() ([]View, error) {
	var out []View
	if err := v.ctx.Get("/views", nil, &out, "Views::failed listing the views"); err != nil {
		return nil, err
	}
	return out, nil
}

// Retrieve returns the named view, or nil when no such view exists.
func (v *Views) Retrieve(name string) (View, error) {
	var out View
	found, err := v.ctx.GetAllow404("/view/"+name, nil, &out,
		"Views::failed retrieving the view: "+name)
	if err != nil || !found {
		return nil, err
	}
	return out, nil
}

// Create creates a view. It fails when the view already exists.
func (v *Views) Create(view View) error {
	return v.ctx.Post("/view", view, nil, nil, "Views::failed creating the view")
}

// Update updates a view. It fails when the view does not exist.
func (v *Views) Update(view View) error {
	return v.ctx.Put("/view", view, nil, nil, "Views::failed updating the view")
}

// Delete deletes the named view. Deleting a view that does not exist is not
// an error.
func (v *Views) Delete(name string) error {
	_, err := v.ctx.DeleteAllow404("/view/"+name, nil, nil,
		"Views::Error deleting view: "+name)
	return err
}
