package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"signal_tracker/internal/helper"
)

const okxBaseURL = "https://www.okx.com"

// OkxClient — публичный REST OKX, только маркет-дата, без авторизации.
type OkxClient struct {
	http    *http.Client
	baseURL string
}

func NewOkxClient() *OkxClient {
	return &OkxClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: okxBaseURL,
	}
}

// NewOkxClientWithBase нужен для тестов с httptest-сервером.
func NewOkxClientWithBase(base string) *OkxClient {
	c := NewOkxClient()
	c.baseURL = base
	return c
}

// FetchPrice возвращает последнюю цену по паре вида "BTC/USDT".
func (c *OkxClient) FetchPrice(ctx context.Context, pair string) (float64, error) {
	instID := helper.PairToInstID(pair)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/api/v5/market/ticker?instId="+url.QueryEscape(instID),
		nil,
	)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			InstID string `json:"instId"`
			Last   string `json:"last"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if payload.Code != "0" {
		return 0, fmt.Errorf("okx error %s: %s", payload.Code, payload.Msg)
	}
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("ticker %s not found", instID)
	}

	last, err := strconv.ParseFloat(payload.Data[0].Last, 64)
	if err != nil || last <= 0 {
		return 0, fmt.Errorf("last parse: %v (%q)", err, payload.Data[0].Last)
	}
	return last, nil
}
