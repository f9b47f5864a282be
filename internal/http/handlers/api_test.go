package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"vendora/internal/config"
	"vendora/internal/domain"
	"vendora/internal/http/handlers"
	"vendora/internal/repos"
	"vendora/internal/services"
)

// newTestApp wires the JSON API against a freshly seeded in-memory database,
// with the same routes as main minus the rate limiters.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}
	deps := handlers.NewDeps(db, config.Config{VariantCacheMS: 1000}, authSvc)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/offers/available", deps.OffersHandler.Available)
	api.Post("/checkout", deps.CheckoutHandler.Checkout)
	api.Get("/orders/:id", deps.CheckoutHandler.Get)
	api.Post("/orders/:id/cancel", deps.CheckoutHandler.Cancel)
	api.Post("/orders/:id/status", handlers.RequireAdmin(authSvc), deps.CheckoutHandler.UpdateStatus)

	merchant := api.Group("/merchant", handlers.RequireMerchant(authSvc))
	merchant.Get("/offers", deps.MerchantHandler.ListOffers)
	merchant.Post("/offers", deps.MerchantHandler.CreateOffer)
	merchant.Post("/offers/:id/pause", deps.MerchantHandler.Pause)
	merchant.Post("/offers/:id/resume", deps.MerchantHandler.Resume)
	merchant.Post("/offers/:id/price", deps.MerchantHandler.SetPrice)
	merchant.Post("/offers/:id/stock", deps.MerchantHandler.UpsertStock)

	api.Get("/variants", deps.CatalogHandler.ListVariants)
	api.Post("/admin/variants", handlers.RequireAdmin(authSvc), deps.CatalogHandler.PublishVariant)
	api.Get("/orders", deps.CheckoutHandler.List)
	merchant.Get("/locations", deps.MerchantHandler.ListLocations)
	merchant.Post("/locations", deps.MerchantHandler.AddLocation)

	app.Post("/login", authH.Login)
	app.Post("/logout", authH.Logout)
	return app, db
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func jsonReq(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// login authenticates a seeded user and returns the session cookie.
func login(t *testing.T, app *fiber.App, email string) *http.Cookie {
	t.Helper()
	resp, err := app.Test(jsonReq("POST", "/login", map[string]string{
		"email":    email,
		"password": "Passw0rd!",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: got %d", email, resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("no sid cookie issued")
	}
	return &http.Cookie{Name: "sid", Value: sid}
}

func TestOffersAvailableRankedByPrice(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/offers/available?variantId=var-tee-red-m&country=US", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decode[struct {
		Offers []domain.ResolvedOffer `json:"offers"`
	}](t, resp)
	if len(body.Offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(body.Offers))
	}
	// Harbor's sale price (1699) undercuts Northside's base (1999).
	if body.Offers[0].OfferID != "off-harbor-tee-m" || body.Offers[0].EffectivePrice != 1699 {
		t.Fatalf("unexpected first offer: %+v", body.Offers[0])
	}
	if body.Offers[1].OfferID != "off-north-tee-m" {
		t.Fatalf("unexpected second offer: %+v", body.Offers[1])
	}
}

func TestOffersAvailableCountryFilter(t *testing.T) {
	app, _ := newTestApp(t)

	// Harbor only lists in US; DE sees Northside alone.
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/offers/available?variantId=var-tee-red-m&country=de", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decode[struct {
		Offers []domain.ResolvedOffer `json:"offers"`
	}](t, resp)
	if len(body.Offers) != 1 || body.Offers[0].OfferID != "off-north-tee-m" {
		t.Fatalf("unexpected DE offers: %+v", body.Offers)
	}
}

func TestOffersAvailableValidation(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{
		"/api/v1/offers/available?country=US",
		"/api/v1/offers/available?variantId=var-tee-red-m&country=usa",
		"/api/v1/offers/available?variantId=var-tee-red-m&country=US&quantity=0",
		"/api/v1/offers/available?variantId=var-tee-red-m&country=US&quantity=abc",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}

	// No matching offers is an empty list, not an error.
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/offers/available?variantId=var-tee-red-m&country=FR", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for empty result, got %d", resp.StatusCode)
	}
}

func TestCheckoutPlacesMultiMerchantOrder(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{
			{"offerId": "off-north-tee-m", "quantity": 2},
			{"offerId": "off-harbor-tee-m", "quantity": 1},
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")

	order := decode[domain.Order](t, resp)
	if order.Status != domain.OrderPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.Totals.Subtotal != 2*1999+1699 {
		t.Fatalf("unexpected subtotal %d", order.Totals.Subtotal)
	}
	if len(order.Splits) != 2 {
		t.Fatalf("expected 2 merchant splits, got %d", len(order.Splits))
	}

	// The order is readable back under the session that placed it.
	req := httptest.NewRequest("GET", "/api/v1/orders/"+order.ID, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on order read, got %d", resp.StatusCode)
	}
}

func TestCheckoutInsufficientStockConflict(t *testing.T) {
	app, db := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{
			{"offerId": "off-north-tee-m", "quantity": 2},
			{"offerId": "off-harbor-tee-m", "quantity": 99},
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["offerId"] != "off-harbor-tee-m" {
		t.Fatalf("conflict should name the short offer, got %v", body["offerId"])
	}

	// Nothing persisted, nothing still reserved.
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected no orders, found %d", n)
	}
	var qty int
	if err := db.Get(&qty, `SELECT SUM(available_qty) FROM stock_records WHERE offer_id='off-north-tee-m'`); err != nil {
		t.Fatal(err)
	}
	if qty != 15 {
		t.Fatalf("expected stock restored to 15, got %d", qty)
	}
}

func TestCheckoutValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{"selections": []any{}}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{{"offerId": "off-nonexistent", "quantity": 1}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown offer: expected 404, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", resp.StatusCode)
	}
}

func TestCancelEndpointRestoresStock(t *testing.T) {
	app, db := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{{"offerId": "off-harbor-tee-m", "quantity": 3}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	sid := extractCookie(resp, "sid")
	order := decode[domain.Order](t, resp)

	req := httptest.NewRequest("POST", "/api/v1/orders/"+order.ID+"/cancel", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on cancel, got %d", resp.StatusCode)
	}

	var qty int
	if err := db.Get(&qty, `SELECT available_qty FROM stock_records WHERE offer_id='off-harbor-tee-m'`); err != nil {
		t.Fatal(err)
	}
	if qty != 5 {
		t.Fatalf("expected stock back at 5, got %d", qty)
	}

	// Second cancel conflicts.
	req = httptest.NewRequest("POST", "/api/v1/orders/"+order.ID+"/cancel", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on double cancel, got %d", resp.StatusCode)
	}
}

func TestOrderRoutesScopedToPlacingSession(t *testing.T) {
	app, db := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{{"offerId": "off-harbor-tee-m", "quantity": 2}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	sid := extractCookie(resp, "sid")
	order := decode[domain.Order](t, resp)

	// A different session reads someone else's order as absent.
	req := httptest.NewRequest("GET", "/api/v1/orders/"+order.ID, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "someone-else"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign read: expected 404, got %d", resp.StatusCode)
	}

	// Same for a request carrying no session at all.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/orders/"+order.ID, nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("anonymous read: expected 404, got %d", resp.StatusCode)
	}

	// A foreign session cannot cancel it either, and stock stays reserved.
	req = httptest.NewRequest("POST", "/api/v1/orders/"+order.ID+"/cancel", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "someone-else"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign cancel: expected 404, got %d", resp.StatusCode)
	}
	var qty int
	if err := db.Get(&qty, `SELECT available_qty FROM stock_records WHERE offer_id='off-harbor-tee-m'`); err != nil {
		t.Fatal(err)
	}
	if qty != 3 {
		t.Fatalf("expected stock still reserved at 3, got %d", qty)
	}

	// The owner still reads it fine.
	req = httptest.NewRequest("GET", "/api/v1/orders/"+order.ID, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner read: expected 200, got %d", resp.StatusCode)
	}

	// Admins see every order.
	admin := login(t, app, "admin@vendora.test")
	req = httptest.NewRequest("GET", "/api/v1/orders/"+order.ID, nil)
	req.AddCookie(admin)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin read: expected 200, got %d", resp.StatusCode)
	}
}

func TestMerchantRoutesRequireSession(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/merchant/offers", map[string]any{"variantId": "var-mug-330", "sku": "X-1"}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no session: expected 401, got %d", resp.StatusCode)
	}

	req := jsonReq("POST", "/api/v1/merchant/offers", map[string]any{"variantId": "var-mug-330", "sku": "X-1"})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "bogus"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("bogus session: expected 403, got %d", resp.StatusCode)
	}
}

func TestMerchantOfferFlow(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := login(t, app, "ops@harbor.test")

	// Harbor lists the mug too.
	req := jsonReq("POST", "/api/v1/merchant/offers", map[string]any{
		"variantId": "var-mug-330",
		"sku":       "HB-MUG",
		"countries": []string{"us"},
	})
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	offer := decode[domain.Offer](t, resp)

	// Re-listing the same variant conflicts.
	req = jsonReq("POST", "/api/v1/merchant/offers", map[string]any{
		"variantId": "var-mug-330",
		"sku":       "HB-MUG-2",
		"countries": []string{"US"},
	})
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate offer: expected 409, got %d", resp.StatusCode)
	}

	// Price and stock the new offer, then it resolves.
	req = jsonReq("POST", "/api/v1/merchant/offers/"+offer.ID+"/price", map[string]any{
		"currency":  "USD",
		"basePrice": 999,
	})
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("set price: expected 201, got %d", resp.StatusCode)
	}

	req = jsonReq("POST", "/api/v1/merchant/offers/"+offer.ID+"/stock", map[string]any{
		"locationId":   "loc-harbor-3pl",
		"availableQty": 7,
	})
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert stock: expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/offers/available?variantId=var-mug-330&country=US", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decode[struct {
		Offers []domain.ResolvedOffer `json:"offers"`
	}](t, resp)
	if len(body.Offers) != 1 || body.Offers[0].OfferID != offer.ID {
		t.Fatalf("expected the new harbor offer to resolve, got %+v", body.Offers)
	}
}

func TestMerchantCannotTouchForeignOffer(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := login(t, app, "ops@harbor.test")

	req := httptest.NewRequest("POST", "/api/v1/merchant/offers/off-north-tee-m/pause", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign offer: expected 404, got %d", resp.StatusCode)
	}
}

func TestOrderStatusRouteIsAdminOnly(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{{"offerId": "off-north-tee-m", "quantity": 1}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	order := decode[domain.Order](t, resp)

	// Merchant sessions are not enough.
	merchantCookie := login(t, app, "ops@northside.test")
	req := jsonReq("POST", "/api/v1/orders/"+order.ID+"/status", map[string]string{"status": "paid"})
	req.AddCookie(merchantCookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("merchant on admin route: expected 403, got %d", resp.StatusCode)
	}

	adminCookie := login(t, app, "admin@vendora.test")
	req = jsonReq("POST", "/api/v1/orders/"+order.ID+"/status", map[string]string{"status": "paid"})
	req.AddCookie(adminCookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin advance: expected 200, got %d", resp.StatusCode)
	}

	// Skipping a state is rejected.
	req = jsonReq("POST", "/api/v1/orders/"+order.ID+"/status", map[string]string{"status": "delivered"})
	req.AddCookie(adminCookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("invalid transition: expected 409, got %d", resp.StatusCode)
	}
}

func TestCatalogBrowseAndAdminPublish(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/variants?productId=prod-tee", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decode[struct {
		Variants []domain.Variant `json:"variants"`
	}](t, resp)
	if len(body.Variants) != 2 {
		t.Fatalf("expected 2 tee variants, got %d", len(body.Variants))
	}

	// Publishing requires an admin session.
	req := jsonReq("POST", "/api/v1/admin/variants", map[string]any{
		"productId": "prod-tee",
		"title":     "Classic Tee / Red / XL",
		"attrs":     map[string]string{"color": "red", "size": "XL"},
	})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("publish without session: expected 401, got %d", resp.StatusCode)
	}

	adminCookie := login(t, app, "admin@vendora.test")
	req = jsonReq("POST", "/api/v1/admin/variants", map[string]any{
		"productId": "prod-tee",
		"title":     "Classic Tee / Red / XL",
		"attrs":     map[string]string{"color": "red", "size": "XL"},
	})
	req.AddCookie(adminCookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("publish: expected 201, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/variants?productId=prod-tee", nil))
	if err != nil {
		t.Fatal(err)
	}
	body = decode[struct {
		Variants []domain.Variant `json:"variants"`
	}](t, resp)
	if len(body.Variants) != 3 {
		t.Fatalf("expected 3 tee variants after publish, got %d", len(body.Variants))
	}
}

func TestMerchantLocations(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := login(t, app, "ops@harbor.test")

	req := jsonReq("POST", "/api/v1/merchant/locations", map[string]string{
		"name": "Harbor Overflow",
		"kind": "warehouse",
	})
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add location: expected 201, got %d", resp.StatusCode)
	}

	req = jsonReq("POST", "/api/v1/merchant/locations", map[string]string{
		"name": "Nowhere",
		"kind": "submarine",
	})
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad kind: expected 400, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/v1/merchant/locations", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decode[struct {
		Locations []domain.Location `json:"locations"`
	}](t, resp)
	if len(body.Locations) != 2 {
		t.Fatalf("expected harbor's 2 locations, got %d", len(body.Locations))
	}
}

func TestOrderHistoryFollowsSession(t *testing.T) {
	app, _ := newTestApp(t)

	// Anonymous history is empty.
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/orders", nil))
	if err != nil {
		t.Fatal(err)
	}
	history := decode[struct {
		Orders []domain.Order `json:"orders"`
	}](t, resp)
	if len(history.Orders) != 0 {
		t.Fatalf("expected empty anonymous history, got %d", len(history.Orders))
	}

	// Checkout issues a session cookie; history under it shows the order.
	resp, err = app.Test(jsonReq("POST", "/api/v1/checkout", map[string]any{
		"selections": []map[string]any{{"offerId": "off-north-tee-m", "quantity": 1}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("checkout should issue a session cookie")
	}
	order := decode[domain.Order](t, resp)

	req := httptest.NewRequest("GET", "/api/v1/orders", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	history = decode[struct {
		Orders []domain.Order `json:"orders"`
	}](t, resp)
	if len(history.Orders) != 1 || history.Orders[0].ID != order.ID {
		t.Fatalf("expected the placed order in history, got %+v", history.Orders)
	}
}
