package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasketClient_ListOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("size"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[{"uuid_id":"` + uuid.NewString() + `","order_status":"NEW","total_amount":"15000.50"}]}`))
	}))
	defer server.Close()

	client := NewBasketClient(server.URL+"/", 0, testutil.Logger())
	page, err := client.ListOrders(context.Background(), 2, 25)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, models.OrderStatusNew, page.Results[0].OrderStatus)
	assert.Equal(t, "15000.5", page.Results[0].TotalAmount.String())
}

func TestBasketClient_Non200IsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	defer server.Close()

	client := NewBasketClient(server.URL, 0, testutil.Logger())

	page, err := client.ListOrders(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)

	order, err := client.GetOrder(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, order)

	archive, err := client.ManagerArchive(context.Background(), "manager 7", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, archive.Results)
}

func TestBasketClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewBasketClient(url, 0, testutil.Logger())
	page, err := client.ListOrders(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotNil(t, page)

	_, _, err = client.UpdateOrder(context.Background(), uuid.New(), &models.UpdateOrderRequest{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestBasketClient_GetOrderWithBasket(t *testing.T) {
	id := uuid.New()
	product := uuid.NewString()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/"+id.String(), r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uuid_id":       id,
			"shipping_city": "Almaty",
			"basket": map[string]interface{}{
				"checkout_stage": "in_progress",
				"basket_items":   []string{product, product},
			},
		})
	}))
	defer server.Close()

	order, err := NewBasketClient(server.URL, 0, testutil.Logger()).GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.NotNil(t, order.Basket)
	assert.Equal(t, models.CheckoutStageInProgress, order.Basket.CheckoutStage)
	assert.Len(t, order.Basket.Items, 2)
}

func TestBasketClient_ManagerArchiveEscapesID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/archive/manager%207", r.URL.EscapedPath())
		w.Write([]byte(`{"count":0,"results":null}`))
	}))
	defer server.Close()

	page, err := NewBasketClient(server.URL, 0, testutil.Logger()).ManagerArchive(context.Background(), "manager 7", 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
}

func TestBasketClient_UpdateOrderRelaysStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"order_status":"CANCELED"}`, string(body))
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"order_status":["invalid transition"]}`))
	}))
	defer server.Close()

	status := models.OrderStatusCanceled
	code, body, err := NewBasketClient(server.URL, 0, testutil.Logger()).
		UpdateOrder(context.Background(), uuid.New(), &models.UpdateOrderRequest{OrderStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"order_status":["invalid transition"]}`, string(body))
}

func TestBasketClient_UpdateOrderNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	code, body, err := NewBasketClient(server.URL, 0, testutil.Logger()).
		UpdateOrder(context.Background(), uuid.New(), &models.UpdateOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "{}", string(body))
}

func TestETLClient_Fetch(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`[{"sku":"100200","model":"Kettle 2000","brand":"Atlant","availabilities":[
			{"storeId":"store-1","available":"yes","stockCount":4,"price":"12990"},
			{"storeId":"store-2","available":"no","stockCount":9,"price":"12990"}]}]`))
	}))
	defer server.Close()

	client := NewETLClient(server.URL, 100)
	created, err := client.ProductsForCreate(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "100200", created[0].SKU)
	require.Len(t, created[0].Availabilities, 2)
	assert.Equal(t, 4, created[0].Availabilities[0].Quantity())
	assert.Equal(t, 0, created[0].Availabilities[1].Quantity())

	_, err = client.ProductsForUpdate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/products/get_for_create", "/products/get_for_update"}, paths)
}

func TestETLClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/get_for_create" {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("maintenance"))
			return
		}
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer server.Close()

	client := NewETLClient(server.URL, 100)
	_, err := client.ProductsForCreate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	_, err = client.ProductsForUpdate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewETLClient(server.URL, 0.001).ProductsForCreate(ctx)
	assert.Error(t, err)
}

func TestNewAccountNumber(t *testing.T) {
	for i := 0; i < 50; i++ {
		n := NewAccountNumber()
		require.Len(t, n, 9)
		v, err := strconv.Atoi(n)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, accountNumberMin)
	}
}
