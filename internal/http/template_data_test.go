package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/http/ui/viewmodel"
)

func TestNewTemplateData_Anonymous(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/coffee-list", nil)
	data := NewTemplateData(r, PageMeta{Title: "Menu", CurrentPage: PageCoffeeList}).Build()

	assert.Equal(t, "Menu", data["Title"])
	assert.Equal(t, "Menu", data["PageTitle"], "page title defaults to title")
	assert.Equal(t, PageCoffeeList, data["CurrentPage"])
	assert.Equal(t, false, data["IsAuthenticated"])
	assert.Equal(t, false, data["IsAdmin"])
	assert.NotContains(t, data, "User")
	assert.Equal(t, map[string]string{}, data["Errors"])
}

func TestNewTemplateData_StaffFlags(t *testing.T) {
	tests := []struct {
		role           domainauth.Role
		admin, cashier bool
	}{
		{domainauth.RoleAdmin, true, false},
		{domainauth.RoleCashier, false, true},
		{domainauth.RoleCustomer, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(SetSessionInContext(context.Background(), testSession("s1", tt.role)))
			data := NewTemplateData(r, PageMeta{Title: "Home"}).Build()

			assert.Equal(t, true, data["IsAuthenticated"])
			assert.Equal(t, tt.admin, data["IsAdmin"])
			assert.Equal(t, tt.cashier, data["IsCashier"])
			user, ok := data["User"].(*viewmodel.User)
			if assert.True(t, ok) {
				assert.Equal(t, "Ada Lovelace", user.Name)
				assert.Equal(t, tt.role.String(), user.Role)
			}
		})
	}
}

func TestNewTemplateData_Notice(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart?notice=added", nil)
	assert.Equal(t, "Added to your cart.", NewTemplateData(r, PageMeta{}).Build()["Notice"])

	r = httptest.NewRequest(http.MethodGet, "/cart?notice=<script>", nil)
	assert.Equal(t, "", NewTemplateData(r, PageMeta{}).Build()["Notice"], "unknown codes show nothing")
}

func TestTemplateDataBuilder_Errors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/profile", nil)
	data := NewTemplateData(r, PageMeta{Title: "Profile"}).
		WithError("Please fix the errors below.").
		WithFieldErrors(map[string]string{"phone": "phone must be a valid phone number"}).
		With("Form", "x").
		Build()

	assert.Equal(t, true, data["Error"])
	assert.Equal(t, "Please fix the errors below.", data["ErrorMessage"])
	assert.Equal(t, map[string]string{"phone": "phone must be a valid phone number"}, data["Errors"])
	assert.Equal(t, "x", data["Form"])
}

func TestTemplateDataBuilder_EmptyFieldErrorsKeepDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	data := NewTemplateData(r, PageMeta{}).WithFieldErrors(nil).Build()
	assert.Equal(t, map[string]string{}, data["Errors"])
}
