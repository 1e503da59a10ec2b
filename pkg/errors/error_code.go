package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTick          ErrorCode = 102
	ErrCodeInvalidOrder         ErrorCode = 103
	ErrCodeInvalidQuantity      ErrorCode = 104
	ErrCodeInvalidTimestamp     ErrorCode = 105

	// Market data errors (200-299)
	ErrCodeUnknownTicker       ErrorCode = 200
	ErrCodeEmptyHistory        ErrorCode = 201
	ErrCodeInsufficientHistory ErrorCode = 202

	// Risk errors (300-399)
	ErrCodeInvalidRiskParameters ErrorCode = 300
	ErrCodeInvalidStopLoss       ErrorCode = 301
	ErrCodeInvalidTakeProfit     ErrorCode = 302
	ErrCodeRewardRiskTooLow      ErrorCode = 303
	ErrCodePositionValueTooHigh  ErrorCode = 304
	ErrCodeRiskBudgetExceeded    ErrorCode = 305

	// Trading errors (500-599)
	ErrCodeInsufficientFunds  ErrorCode = 500
	ErrCodeInsufficientShares ErrorCode = 501
	ErrCodeTickerNotTracked   ErrorCode = 502
	ErrCodeIndexOutOfBounds   ErrorCode = 503
	ErrCodePositionNotFound   ErrorCode = 504
	ErrCodeOrderNotFound      ErrorCode = 505

	// Journal errors (600-699)
	ErrCodeJournalInitFailed  ErrorCode = 600
	ErrCodeJournalWriteFailed ErrorCode = 601
	ErrCodeJournalQueryFailed ErrorCode = 602

	// Feed errors (700-799)
	ErrCodeFeedFetchFailed  ErrorCode = 700
	ErrCodeFeedParseFailed  ErrorCode = 701
	ErrCodeInvalidTimespan  ErrorCode = 702
	ErrCodeFeedStreamClosed ErrorCode = 703
)
