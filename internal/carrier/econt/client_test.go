package econt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL:   server.URL + "/",
		Username:  "iasp-dev",
		Password:  "1Asp-dev",
		Timeout:   2 * time.Second,
		VerifySSL: true,
	}, nil)
}

func TestCreateLabelSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, endpointCreateLabel, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "iasp-dev", user)
		require.Equal(t, "1Asp-dev", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, ModeCreate, body["mode"])
		label, _ := body["label"].(map[string]interface{})
		require.Equal(t, "PACK", label["shipmentType"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"label": map[string]interface{}{
				"shipmentNumber": "1051602357891",
				"pdfURL":         "https://ee.econt.com/label/1051602357891.pdf",
				"totalPrice":     6.4,
			},
		})
	})

	result, err := client.CreateLabel(context.Background(), map[string]interface{}{"shipmentType": "PACK"}, ModeCreate)
	require.NoError(t, err)
	require.Equal(t, "1051602357891", result.ShipmentNumber)
	require.Equal(t, "https://ee.econt.com/label/1051602357891.pdf", result.PDFURL)
	require.NotNil(t, result.TotalPrice)
	require.InDelta(t, 6.4, *result.TotalPrice, 0.0001)
}

func TestCreateLabelCarrierErrorRecursesInnerErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"type": "ExInvalidParam",
			"innerErrors": []interface{}{
				map[string]interface{}{"messageBg": "Невалиден телефон"},
				map[string]interface{}{
					"innerErrors": []interface{}{
						map[string]interface{}{"errorMessage": "receiverAddress.city is required"},
					},
				},
			},
		})
	})

	_, err := client.CreateLabel(context.Background(), map[string]interface{}{}, ModeCreate)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCarrier))
	require.Equal(t, "CarrierError: Невалиден телефон; receiverAddress.city is required", err.Error())
}

func TestCreateLabelRejectsUnknownMode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("request should not be sent")
	})
	_, err := client.CreateLabel(context.Background(), map[string]interface{}{}, "print")
	require.True(t, errors.Is(err, ErrConfigInvalid))
}

func TestExtractErrorMessagePrecedence(t *testing.T) {
	msg := ExtractErrorMessage(map[string]interface{}{
		"messageBg":    "съобщение",
		"errorMessage": "error",
		"message":      "primary",
	})
	require.Equal(t, "primary", msg)
	require.Equal(t, "", ExtractErrorMessage(map[string]interface{}{"type": "X"}))
	require.Equal(t, "", ExtractErrorMessage(nil))
}

func TestExtractErrorMessageAppendsInnerErrors(t *testing.T) {
	msg := ExtractErrorMessage(map[string]interface{}{
		"type":    "ExInvalidParam",
		"message": "Невалидни данни",
		"innerErrors": []interface{}{
			map[string]interface{}{"message": "receiver.phone is invalid"},
			map[string]interface{}{
				"messageBg": "Адресът е непълен",
				"innerErrors": []interface{}{
					map[string]interface{}{"errorMessage": "receiverAddress.city is required"},
				},
			},
			"not-an-object",
		},
	})
	require.Equal(t, "Невалидни данни: receiver.phone is invalid; Адресът е непълен: receiverAddress.city is required", msg)
	require.Equal(t, "top", ExtractErrorMessage(map[string]interface{}{"message": "top", "innerErrors": []interface{}{}}))
}

func TestTransportErrorOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond, VerifySSL: true}, nil)

	_, err := client.CreateLabel(context.Background(), map[string]interface{}{}, ModeCreate)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTransport))
	require.True(t, strings.HasPrefix(err.Error(), "TransportError: "))
}

func TestCalculatePriceNeverErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	require.Nil(t, client.CalculatePrice(context.Background(), map[string]interface{}{}))

	priced := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, ModeCalculate, body["mode"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"label": map[string]interface{}{"totalPrice": "5.90"},
		})
	})
	price := priced.CalculatePrice(context.Background(), map[string]interface{}{})
	require.NotNil(t, price)
	require.InDelta(t, 5.9, *price, 0.0001)
}

func TestTrackShipmentPerShipmentError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, endpointStatuses, r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []interface{}{"1051"}, body["shipmentNumbers"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"shipmentStatuses": []interface{}{
				map[string]interface{}{
					"status": nil,
					"error":  map[string]interface{}{"message": "Shipment not found"},
				},
			},
		})
	})

	result, err := client.TrackShipment(context.Background(), "1051")
	require.NoError(t, err)
	require.Equal(t, "Shipment not found", result.Error)
	require.Nil(t, result.Status)
}

func TestTrackShipmentStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"shipmentStatuses": []interface{}{
				map[string]interface{}{
					"status": map[string]interface{}{
						"shipmentNumber":        "1051",
						"shortDeliveryStatusEn": "Delivered",
						"deliveryTime":          "2026-10-12T11:20:00+03:00",
					},
				},
			},
		})
	})
	result, err := client.TrackShipment(context.Background(), "1051")
	require.NoError(t, err)
	require.Empty(t, result.Error)
	require.Equal(t, "Delivered", result.Status["shortDeliveryStatusEn"])
}

func TestNomenclatureFailureReturnsEmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	cities := client.GetCities(context.Background(), "соф")
	require.NotNil(t, cities)
	require.Empty(t, cities)
	offices := client.GetOffices(context.Background(), 41)
	require.NotNil(t, offices)
	require.Empty(t, offices)
}

func TestGetCitiesFiltersBySearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"cities": []interface{}{
				map[string]interface{}{"id": 41, "name": "София", "nameEn": "Sofia", "postCode": "1000"},
				map[string]interface{}{"id": 6, "name": "Варна", "nameEn": "Varna", "postCode": "9000"},
			},
		})
	})
	cities := client.GetCities(context.Background(), "sof")
	require.Len(t, cities, 1)
	require.Equal(t, 41, cities[0].ID)
	require.Equal(t, "1000", cities[0].PostCode)
}

func TestGetOfficesParsesAPS(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(41), body["cityID"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"offices": []interface{}{
				map[string]interface{}{
					"code":    "APM1234",
					"name":    "Econtomat Mall",
					"isAPS":   true,
					"address": map[string]interface{}{"fullAddress": "бул. Витоша 100"},
				},
			},
		})
	})
	offices := client.GetOffices(context.Background(), 41)
	require.Len(t, offices, 1)
	require.True(t, offices[0].IsAPS)
	require.Equal(t, "бул. Витоша 100", offices[0].Address)
}
