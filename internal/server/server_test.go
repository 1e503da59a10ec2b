package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/engine"
	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

type ServerTestSuite struct {
	suite.Suite
	engine *engine.Engine
	server *Server
	t0     types.Timestamp
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	log := logger.NewNopLogger()
	eng, err := engine.NewEngine(engine.DefaultConfig(), log)
	suite.Require().NoError(err)
	suite.engine = eng

	suite.server = NewServer(eng, log)
	suite.Require().NoError(suite.server.Start("127.0.0.1:0"))

	suite.t0 = types.NewTimestamp(2024, 6, 10, 9, 30, 0)
	_, err = suite.server.ProcessTick(types.Tick{
		Symbol:    "AAPL",
		Last:      205.54,
		Low:       205.00,
		High:      206.00,
		Bid:       205.50,
		Ask:       205.58,
		Volume:    1200,
		Timestamp: suite.t0,
	})
	suite.Require().NoError(err)
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
	suite.NoError(suite.engine.Close())
}

func (suite *ServerTestSuite) getJSON(path string, into any) *http.Response {
	resp, err := http.Get(suite.server.BaseURL() + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	if into != nil {
		suite.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
	}
	return resp
}

func (suite *ServerTestSuite) TestAccountEndpoint() {
	var account map[string]float64
	resp := suite.getJSON("/api/account", &account)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.InDelta(100000, account["cash"], 1e-9)
	suite.InDelta(100000, account["value"], 1e-9)
}

func (suite *ServerTestSuite) TestHistoryEndpoint() {
	var snapshots []types.PriceSnapshot
	resp := suite.getJSON("/api/market/AAPL/history", &snapshots)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Require().Len(snapshots, 1)
	suite.InDelta(205.54, snapshots[0].Last, 1e-9)
}

func (suite *ServerTestSuite) TestHistoryUnknownTicker() {
	resp := suite.getJSON("/api/market/MSFT/history", nil)
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestPlaceAndCancelOrder() {
	order := types.PendingOrder{
		Symbol:     "AAPL",
		Side:       types.SideBuy,
		LimitPrice: 200.00,
		Quantity:   10,
		PlacedAt:   suite.t0,
		ExpiresAt:  suite.t0.Add(3600),
	}
	body, err := json.Marshal(order)
	suite.Require().NoError(err)

	resp, err := http.Post(suite.server.BaseURL()+"/api/orders", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	var placed types.PendingOrder
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&placed))
	resp.Body.Close()
	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.NotEmpty(placed.ID)

	var orders []types.PendingOrder
	suite.getJSON("/api/orders", &orders)
	suite.Require().Len(orders, 1)

	req, err := http.NewRequest(http.MethodDelete, suite.server.BaseURL()+"/api/orders/"+placed.ID, nil)
	suite.Require().NoError(err)
	resp, err = http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	suite.getJSON("/api/orders", &orders)
	suite.Empty(orders)
}

func (suite *ServerTestSuite) TestPlaceOrderRejected() {
	order := types.PendingOrder{
		Symbol:     "AAPL",
		Side:       types.SideSell,
		LimitPrice: 210.00,
		Quantity:   10,
		PlacedAt:   suite.t0,
		ExpiresAt:  suite.t0.Add(3600),
	}
	body, err := json.Marshal(order)
	suite.Require().NoError(err)

	resp, err := http.Post(suite.server.BaseURL()+"/api/orders", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *ServerTestSuite) TestTradesEndpointEmpty() {
	var trades []types.Trade
	resp := suite.getJSON("/api/trades", &trades)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Empty(trades)
}

func (suite *ServerTestSuite) TestWebSocketReceivesTicks() {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+suite.server.Address()+"/ws/ticks", nil)
	suite.Require().NoError(err)
	defer conn.Close()

	_, err = suite.server.ProcessTick(types.Tick{
		Symbol:    "AAPL",
		Last:      206.00,
		Low:       205.00,
		High:      206.50,
		Bid:       205.95,
		Ask:       206.05,
		Volume:    500,
		Timestamp: suite.t0.Add(60),
	})
	suite.Require().NoError(err)

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, payload, err := conn.ReadMessage()
	suite.Require().NoError(err)

	var tick types.Tick
	suite.Require().NoError(json.Unmarshal(payload, &tick))
	suite.Equal("AAPL", tick.Symbol)
	suite.InDelta(206.00, tick.Last, 1e-9)
}
