package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdfschedule/pkg/contentstream"
)

// xobjectForms resolves the form XObjects of a resource dictionary
type xobjectForms struct {
	ctx      *model.Context
	xobjects types.Dict
}

// newXObjectForms returns a resolver for the /XObject entry of resources,
// or nil when there is none
func newXObjectForms(ctx *model.Context, resources types.Dict) (contentstream.FormResolver, error) {
	if resources == nil {
		return nil, nil
	}
	obj, found := resources.Find("XObject")
	if !found || obj == nil {
		return nil, nil
	}
	d, err := ctx.DereferenceDict(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read XObject resources: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return &xobjectForms{ctx: ctx, xobjects: d}, nil
}

func (f *xobjectForms) Form(name string) (contentstream.Form, bool, error) {
	obj, found := f.xobjects.Find(name)
	if !found || obj == nil {
		return contentstream.Form{}, false, nil
	}

	sd, _, err := f.ctx.DereferenceStreamDict(obj)
	if err != nil {
		return contentstream.Form{}, false, err
	}
	if sd == nil {
		return contentstream.Form{}, false, nil
	}
	if subtype := sd.Subtype(); subtype == nil || *subtype != "Form" {
		return contentstream.Form{}, false, nil
	}

	content, err := decodeStream(sd)
	if err != nil {
		return contentstream.Form{}, false, fmt.Errorf("failed to decode form: %w", err)
	}
	form := contentstream.Form{Content: content, Matrix: contentstream.Identity()}

	if m := sd.ArrayEntry("Matrix"); len(m) == 6 {
		var v [6]float64
		for i, o := range m {
			if v[i], err = f.ctx.DereferenceNumber(o); err != nil {
				return contentstream.Form{}, false, fmt.Errorf("invalid form matrix: %w", err)
			}
		}
		form.Matrix = contentstream.Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}
	}

	if res, found := sd.Find("Resources"); found && res != nil {
		d, err := f.ctx.DereferenceDict(res)
		if err != nil {
			return contentstream.Form{}, false, fmt.Errorf("failed to read form resources: %w", err)
		}
		if form.Resources, err = newXObjectForms(f.ctx, d); err != nil {
			return contentstream.Form{}, false, err
		}
	}

	return form, true, nil
}
