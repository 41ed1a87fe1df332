package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tireshop-service/internal/cart"
	"tireshop-service/internal/config"
	"tireshop-service/internal/middleware"
	"tireshop-service/internal/models"
	"tireshop-service/internal/repository"
)

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	store   *cart.MemoryStore
	product models.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Brand{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.SiteSettings{},
	))
	t.Cleanup(func() { sqlDB.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		SiteBaseURL:     "http://shop.test",
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}

	brand := models.Brand{Name: "Michelin", Slug: "michelin"}
	require.NoError(t, db.Create(&brand).Error)
	product := models.Product{
		BrandID: &brand.ID, Name: "X-Ice Snow", Slug: "michelin-x-ice-snow-1",
		Width: 205, Profile: 55, Diameter: 16, Seasonality: models.SeasonWinter,
		Price: decimal.NewFromInt(3200), StockQuantity: 5,
	}
	require.NoError(t, db.Create(&product).Error)

	catalogRepo := repository.NewCatalogRepository(db, nil, log)
	store := cart.NewMemoryStore()

	catalogHandler := NewCatalogHandler(catalogRepo, cfg, log)
	cartHandler := NewCartHandler(store, catalogRepo, log)

	router := gin.New()
	router.Use(middleware.Session())
	router.GET("/tyres/*facets", catalogHandler.ListTyres)
	router.GET("/products/:slug", catalogHandler.GetProduct)
	router.GET("/search", catalogHandler.Search)
	router.GET("/sitemap.xml", catalogHandler.Sitemap)
	router.GET("/robots.txt", catalogHandler.Robots)
	router.GET("/cart", cartHandler.GetCart)
	router.POST("/cart/items", cartHandler.AddItem)
	router.PUT("/cart/items", cartHandler.UpdateItem)
	router.POST("/cart/items/ajax", cartHandler.AddItemAjax)
	router.DELETE("/cart/items/:productId", cartHandler.RemoveItem)

	return &testEnv{router: router, db: db, store: store, product: product}
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestListTyresFacetPage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/tyres/michelin/zymovi", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Products      []json.RawMessage `json:"products"`
		Total         int64             `json:"total"`
		CanonicalPath string            `json:"canonicalPath"`
		Meta          struct {
			H1 string `json:"h1"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, int64(1), body.Total)
	assert.Equal(t, "/tyres/michelin/zymovi", body.CanonicalPath)
	assert.Equal(t, "Winter tires Michelin", body.Meta.H1)
}

func TestListTyresUnknownSegment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/tyres/no-such-thing", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTyresQueryFiltersRedirectToCanonicalPath(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/tyres/?brand=michelin&season=winter&width=205&profile=55&diameter=16", nil), nil)

	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/tyres/michelin/zymovi/205-55-r16", w.Header().Get("Location"))
}

func TestListTyresRedirectKeepsNonFacetParams(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/tyres/?brand=michelin&sort=cheap&page=2", nil), nil)

	require.Equal(t, http.StatusMovedPermanently, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/tyres/michelin", loc.Path)
	assert.Equal(t, "cheap", loc.Query().Get("sort"))
	assert.Equal(t, "2", loc.Query().Get("page"))
	assert.Empty(t, loc.Query().Get("brand"))
}

func TestSearchCompactSizeRedirects(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/search?q=2055516", nil), nil)

	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/tyres/205-55-r16", w.Header().Get("Location"))
}

func TestGetProductWithSimilar(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/products/michelin-x-ice-snow-1", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Product struct {
			DisplayName string `json:"displayName"`
			SizeLabel   string `json:"sizeLabel"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "X-Ice Snow", body.Product.DisplayName)
	assert.Equal(t, "205/55 R16", body.Product.SizeLabel)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/products/missing", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func sessionCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	res := http.Response{Header: w.Header()}
	return res.Cookies()
}

func TestCartAddAndClampWarning(t *testing.T) {
	env := newTestEnv(t)
	productID := env.product.ID.String()

	// first add within stock
	w := env.do(t, postForm("/cart/items", url.Values{
		"product_id": {productID},
		"quantity":   {"3"},
	}), nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := sessionCookies(w)
	require.NotEmpty(t, cookies)

	var payload struct {
		Len     int    `json:"len"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 3, payload.Len)
	assert.Empty(t, payload.Warning)

	// stock is 5, 3 in cart, asking 4 more: clamped with warning on the form path
	w = env.do(t, postForm("/cart/items", url.Values{
		"product_id": {productID},
		"quantity":   {"4"},
	}), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 5, payload.Len)
	assert.Contains(t, payload.Warning, "5 units")
}

func TestCartAjaxClampsSilently(t *testing.T) {
	env := newTestEnv(t)
	productID := env.product.ID.String()

	w := env.do(t, postForm("/cart/items/ajax", url.Values{
		"product_id": {productID},
		"quantity":   {"3"},
	}), nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := sessionCookies(w)

	w = env.do(t, postForm("/cart/items/ajax", url.Values{
		"product_id": {productID},
		"quantity":   {"4"},
	}), cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		CartLen int  `json:"cartLen"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 5, body.CartLen)
}

func TestCartUpdateAndRemove(t *testing.T) {
	env := newTestEnv(t)
	productID := env.product.ID.String()

	w := env.do(t, postForm("/cart/items", url.Values{
		"product_id": {productID},
		"quantity":   {"2"},
	}), nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := sessionCookies(w)

	req := httptest.NewRequest(http.MethodPut, "/cart/items", strings.NewReader(url.Values{
		"product_id": {productID},
		"quantity":   {"1"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = env.do(t, req, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Len int `json:"len"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Len)

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/cart/items/"+productID, nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 0, payload.Len)
}

func TestCartUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, postForm("/cart/items", url.Values{
		"product_id": {"b5cbb760-0000-0000-0000-000000000000"},
		"quantity":   {"1"},
	}), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSitemapAndRobots(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<urlset")
	assert.Contains(t, body, "http://shop.test/tyres/zymovi")
	assert.Contains(t, body, "http://shop.test/products/michelin-x-ice-snow-1")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/robots.txt", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sitemap: http://shop.test/sitemap.xml")
}
