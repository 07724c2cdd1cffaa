package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/target/coffeehouse/internal/domain/cart"
	"github.com/target/coffeehouse/internal/domain/model"
	"github.com/target/coffeehouse/internal/service"
)

type cartLineForm struct {
	ProductID string `form:"product_id" validate:"required,identifier"`
	Size      string `form:"size"       validate:"omitempty,max=32"`
	Quantity  int    `form:"quantity"   validate:"gte=0,lte=20"`
}

func parseCartLine(defQty int) FormParser[cartLineForm] {
	return func(form url.Values) cartLineForm {
		return cartLineForm{
			ProductID: formString(form, "product_id"),
			Size:      formString(form, "size"),
			Quantity:  formInt(form, "quantity", defQty),
		}
	}
}

func (f cartLineForm) key() cart.LineKey { return cart.LineKey{ProductID: f.ProductID, Size: f.Size} }

type checkoutForm struct {
	Method         string `form:"method"          validate:"required,oneof=card cash"`
	Notes          string `form:"notes"           validate:"max=280"`
	IdempotencyKey string `form:"idempotency_key" validate:"omitempty,uuid"`
}

func parseCheckout(form url.Values) checkoutForm {
	return checkoutForm{
		Method:         formString(form, "method"),
		Notes:          formString(form, "notes"),
		IdempotencyKey: formString(form, "idempotency_key"),
	}
}

var cartMeta = PageMeta{Title: "Your cart", CurrentPage: PageCart}

// Cart shows the signed-in customer's cart.
func (h *UIHandlers) Cart(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: cartMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			c, err := h.Shop.Get(ctx, sess.UserID)
			if err != nil {
				return err
			}
			data["Cart"] = c
			return nil
		},
	})
}

// CartAdd adds a product to the cart. POST /cart/add.
func (h *UIHandlers) CartAdd(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parseCartLine(1))
	if err == nil && form.Quantity == 0 {
		form.Quantity = 1
	}
	h.dispatchCart(w, r, err, func() cart.Action {
		return cart.AddItem{Item: cart.Item{ProductID: form.ProductID, Size: form.Size, Quantity: form.Quantity}}
	}, "added")
}

// CartUpdate sets a line's quantity; zero removes it. POST /cart/update.
func (h *UIHandlers) CartUpdate(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parseCartLine(-1))
	h.dispatchCart(w, r, err, func() cart.Action {
		return cart.UpdateQuantity{Key: form.key(), Quantity: form.Quantity}
	}, "updated")
}

// CartRemove drops a line. POST /cart/remove.
func (h *UIHandlers) CartRemove(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parseCartLine(0))
	h.dispatchCart(w, r, err, func() cart.Action { return cart.RemoveItem{Key: form.key()} }, "removed")
}

// CartClear empties the cart. POST /cart/clear.
func (h *UIHandlers) CartClear(w http.ResponseWriter, r *http.Request) {
	h.dispatchCart(w, r, nil, func() cart.Action { return cart.Clear{} }, "cleared")
}

func (h *UIHandlers) dispatchCart(
	w http.ResponseWriter,
	r *http.Request,
	formErr error,
	action func() cart.Action,
	notice string,
) {
	sess := GetSessionFromContext(r.Context())
	err := formErr
	if err == nil {
		_, err = h.Shop.Dispatch(r.Context(), sess.UserID, action())
	}
	if err == nil {
		seeOther(w, r, "/cart", notice)
		return
	}
	if failsPage(err) {
		h.renderFailure(w, r, cartMeta, err)
		return
	}
	current, loadErr := h.Shop.Get(r.Context(), sess.UserID)
	if loadErr != nil {
		h.renderFailure(w, r, cartMeta, loadErr)
		return
	}
	h.renderForm(w, r, cartMeta, err, map[string]any{"Cart": current})
}

var checkoutMeta = PageMeta{Title: "Checkout", CurrentPage: PageCheckout}

// Checkout shows the order summary and payment choice. GET /order.
func (h *UIHandlers) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	c, err := h.Shop.Get(r.Context(), sess.UserID)
	if err != nil {
		h.renderFailure(w, r, checkoutMeta, err)
		return
	}
	if c.IsEmpty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	data := NewTemplateData(r, checkoutMeta).
		With("Cart", c).
		With("IdempotencyKey", uuid.NewString()).
		With("Form", checkoutForm{Method: string(model.PaymentMethodCard)}).
		Build()
	h.render(w, r, http.StatusOK, data)
}

// PlaceOrder turns the cart into an order and pending payment. POST /order.
// Card payments continue to /payment; cash orders are settled at the counter.
func (h *UIHandlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	form, err := parseValidForm(r, parseCheckout)
	var res service.CheckoutResult
	if err == nil {
		res, err = h.Shop.Checkout(r.Context(), service.CheckoutInput{
			UserID:         sess.UserID,
			Method:         model.PaymentMethod(form.Method),
			Notes:          form.Notes,
			IdempotencyKey: form.IdempotencyKey,
		})
	}
	if err != nil {
		if failsPage(err) {
			h.renderFailure(w, r, checkoutMeta, err)
			return
		}
		c, _ := h.Shop.Get(r.Context(), sess.UserID)
		if form.IdempotencyKey == "" {
			form.IdempotencyKey = uuid.NewString()
		}
		h.renderForm(w, r, checkoutMeta, err, map[string]any{
			"Cart":           c,
			"Form":           form,
			"IdempotencyKey": form.IdempotencyKey,
		})
		return
	}

	if res.Payment.Method == model.PaymentMethodCash {
		http.Redirect(w, r, "/payment-complete?order="+url.QueryEscape(res.Order.ID), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/payment?order="+url.QueryEscape(res.Order.ID), http.StatusSeeOther)
}
