package httpx

import (
	"context"
	"net/http"

	"github.com/target/coffeehouse/internal/domain/model"
)

// Home shows the featured menu.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Coffeehouse", PageTitle: "Fresh from the bar", CurrentPage: PageHome},
		Fetch: func(ctx context.Context, data map[string]any) error {
			products, err := h.Shop.Products(ctx)
			if err != nil {
				return err
			}
			data["Featured"] = featured(products, 3)
			return nil
		},
	})
}

// CoffeeList shows the full menu.
func (h *UIHandlers) CoffeeList(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Menu", PageTitle: "Our Coffee", CurrentPage: PageCoffeeList},
		Fetch: func(ctx context.Context, data map[string]any) error {
			products, err := h.Shop.Products(ctx)
			if err != nil {
				return err
			}
			data["Products"] = products
			return nil
		},
	})
}

// CoffeeDetail shows one product with its sizes and an add-to-cart form.
func (h *UIHandlers) CoffeeDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Coffee", CurrentPage: PageCoffeeDetail},
		Fetch: func(ctx context.Context, data map[string]any) error {
			p, err := h.Shop.Product(ctx, id)
			if err != nil {
				return err
			}
			data["Product"] = p
			data["Title"] = p.Name
			data["PageTitle"] = p.Name
			return nil
		},
	})
}

// Login renders the sign-in page. The form posts nowhere; it links to the
// identity provider round trip with the pending redirect target.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	target := safeRedirectPath(r.URL.Query().Get(redirectQueryParam))
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Sign in", CurrentPage: PageLogin},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["Redirect"] = target
			return nil
		},
	})
}

// Register renders the sign-up page; accounts are created at the identity provider.
func (h *UIHandlers) Register(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: PageMeta{Title: "Create an account", CurrentPage: PageRegister}})
}

// featured returns up to n available products.
func featured(products []model.Product, n int) []model.Product {
	out := make([]model.Product, 0, n)
	for _, p := range products {
		if len(out) == n {
			break
		}
		if p.Available {
			out = append(out, p)
		}
	}
	return out
}
