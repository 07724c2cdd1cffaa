package httpx

// CurrentPage identifiers used by handlers, navigation and the content template map.
const (
	// Storefront.
	PageHome         = "home"
	PageCoffeeList   = "coffee-list"
	PageCoffeeDetail = "coffee-detail"
	PageLogin        = "login"
	PageRegister     = "register"

	// Customer.
	PageCart            = "cart"
	PageCheckout        = "checkout"
	PagePayment         = "payment"
	PagePaymentComplete = "payment-complete"
	PageOrderHistory    = "order-history"
	PageProfile         = "profile"

	// Staff.
	PageAdminOverview   = "admin-overview"
	PageAdminPayments   = "admin-payments"
	PageAdminProducts   = "admin-products"
	PageCashierQueue    = "cashier-queue"
	PageCashierPayments = "cashier-payments"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:            "home-content",
	PageCoffeeList:      "coffee-list-content",
	PageCoffeeDetail:    "coffee-detail-content",
	PageLogin:           "login-content",
	PageRegister:        "register-content",
	PageCart:            "cart-content",
	PageCheckout:        "checkout-content",
	PagePayment:         "payment-content",
	PagePaymentComplete: "payment-complete-content",
	PageOrderHistory:    "order-history-content",
	PageProfile:         "profile-content",
	PageAdminOverview:   "admin-overview-content",
	PageAdminPayments:   "admin-payments-content",
	PageAdminProducts:   "admin-products-content",
	PageCashierQueue:    "cashier-queue-content",
	PageCashierPayments: "cashier-payments-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "home-content"
}
