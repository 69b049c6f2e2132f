package handlers

import (
	"html/template"
	"net/http"

	"loanscan/internal/models"
	"loanscan/internal/validate"
	"loanscan/internal/views"
)

// validationNotice replaces the recognized text when a submission is sent
// back for correction.
const validationNotice = "Validation failed. Please correct the fields."

type successPage struct {
	Reference  string
	QRCode     template.URL
	Name       string
	Address    string
	Income     string
	LoanAmount string
}

// Submit validates the reviewed fields and stores the application.
// POST /submit (form-encoded name, address, income, loanAmount)
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	sub := validate.Submission{
		Name:       r.PostForm.Get("name"),
		Address:    r.PostForm.Get("address"),
		Income:     r.PostForm.Get("income"),
		LoanAmount: r.PostForm.Get("loanAmount"),
	}

	if errs := validate.Validate(sub); len(errs) > 0 {
		h.log.InfoContext(ctx, "submission rejected", "errors", len(errs))
		h.render(w, r, http.StatusBadRequest, views.Result, reviewPage{
			Data: models.ExtractedFields{
				Name:       sub.Name,
				Address:    sub.Address,
				Income:     sub.Income,
				LoanAmount: sub.LoanAmount,
				FullText:   validationNotice,
			},
			Errors: errs,
		})
		return
	}

	app := sub.Application()
	if err := h.store.Save(ctx, &app); err != nil {
		h.log.ErrorContext(ctx, "save application", "error", err)
		http.Error(w, "Error saving data.", http.StatusInternalServerError)
		return
	}
	h.log.InfoContext(ctx, "application saved", "id", app.ID, "reference", app.Reference)

	qr, err := referenceQRCode(app.Reference)
	if err != nil {
		h.log.WarnContext(ctx, "generate reference qr code", "reference", app.Reference, "error", err)
	}

	h.render(w, r, http.StatusOK, views.Success, successPage{
		Reference:  app.Reference,
		QRCode:     qr,
		Name:       app.Name,
		Address:    app.Address,
		Income:     app.Income,
		LoanAmount: app.LoanAmount,
	})
}
