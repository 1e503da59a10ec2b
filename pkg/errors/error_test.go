package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnknownTicker, "no history for %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeUnknownTicker, err.Code)
	suite.Equal("no history for AAPL", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeJournalQueryFailed, "failed to query trades", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeJournalQueryFailed, err.Code)
	suite.Equal("failed to query trades", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeFeedFetchFailed, cause, "failed to fetch ticks for symbol: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeFeedFetchFailed, err.Code)
	suite.Equal("failed to fetch ticks for symbol: AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownTicker, "unknown ticker", cause)
	suite.Equal("[200] unknown ticker: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownTicker, "unknown ticker", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInsufficientFunds, "cash below order cost")
	suite.Equal(ErrCodeInsufficientFunds, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeEmptyHistory, "no appended data")
	err := Wrap(ErrCodeInsufficientHistory, "not enough daily bars", cause)
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeInsufficientHistory, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromPlainError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInsufficientShares, "not enough shares held")
	suite.True(HasCode(err, ErrCodeInsufficientShares))
	suite.False(HasCode(err, ErrCodeInsufficientFunds))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownTicker, "unknown ticker", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	var typedErr *Error
	suite.True(As(err, &typedErr))
	suite.Equal(ErrCodeInvalidParameter, typedErr.Code)
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	// Verify some key error codes have expected values
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeUnknownTicker)
	suite.Equal(ErrorCode(300), ErrCodeInvalidRiskParameters)
	suite.Equal(ErrorCode(500), ErrCodeInsufficientFunds)
	suite.Equal(ErrorCode(600), ErrCodeJournalInitFailed)
	suite.Equal(ErrorCode(700), ErrCodeFeedFetchFailed)
}
