package commission

// Schedule prices the commission for an execution of the given share count
// and returns the fee in USD.
type Schedule interface {
	Calculate(quantity int) float64
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerInteractiveBroker,
	BrokerZero,
}

func GetSchedule(broker Broker) Schedule {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBroker()
	case BrokerZero:
		return NewZero()
	default:
		return NewZero()
	}
}

type InteractiveBroker struct{}

// NewInteractiveBroker charges 0.005 USD per share with a 1 USD minimum
// per execution.
func NewInteractiveBroker() Schedule {
	return &InteractiveBroker{}
}

func (f *InteractiveBroker) Calculate(quantity int) float64 {
	fee := float64(quantity) * 0.005
	if fee < 1 {
		return 1
	}
	return fee
}
