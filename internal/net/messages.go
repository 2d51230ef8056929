package net

import (
	"encoding/binary"
	"errors"
	. "fenrir/internal/common"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for specified username length")
	ErrInvalidUUID        = errors.New("invalid uuid")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	ModifyOrder
	LogBook
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. Prices travel as int64 ticks, never float64 —
// the wire format mirrors the core book's integer-tick representation, so
// no fixed-point/float conversion happens anywhere on this side of the
// boundary. A UUID is always its canonical 36-byte string form.
const (
	BaseMessageHeaderLen        = 2
	uuidLen                     = 36
	NewOrderMessageHeaderLen    = 2 + 2 + 4 + 8 + 8 + 8 + 1 + 1
	CancelOrderMessageHeaderLen = 2 + uuidLen
	ModifyOrderMessageHeaderLen = 2 + uuidLen + 8 + 8 + 8
)

// Generic message type.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, errors.New("message too short to contain header")
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	case ModifyOrder:
		return parseModifyOrder(msg)
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

// NewOrderMessage carries any of the four order kinds the core book
// supports. StopPrice is 0 for Limit/Market orders; LimitPrice is 0 for a
// bare market or stop-market order, and is the post-trigger limit for a
// stop-limit order.
type NewOrderMessage struct {
	BaseMessage
	AssetType   AssetType // 2 bytes
	OrderType   OrderType // 2 bytes
	Ticker      string    // 4 bytes
	LimitPrice  int64     // 8 bytes
	StopPrice   int64     // 8 bytes
	Quantity    uint64    // 8 bytes
	Side        Side      // 1 byte
	UsernameLen uint8     // 1 byte
	Username    string    // n bytes
}

func (o *NewOrderMessage) Order() (Order, error) {
	orderUUID := uuid.New().String()
	if orderUUID == "" {
		return Order{}, ErrInvalidUUID
	}

	return Order{
		UUID:          orderUUID,
		AssetType:     o.AssetType,
		OrderType:     o.OrderType,
		Ticker:        o.Ticker,
		LimitPrice:    o.LimitPrice,
		StopPrice:     o.StopPrice,
		Quantity:      o.Quantity,
		TotalQuantity: o.Quantity,
		Timestamp:     time.Now(),
		Side:          o.Side,
		Owner:         o.Username,
	}, nil
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}

	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderType = OrderType(binary.BigEndian.Uint16(msg[2:4]))
	m.Ticker = string(msg[4:8]) // Assuming ASCII/UTF-8 string
	m.LimitPrice = int64(binary.BigEndian.Uint64(msg[8:16]))
	m.StopPrice = int64(binary.BigEndian.Uint64(msg[16:24]))
	m.Quantity = binary.BigEndian.Uint64(msg[24:32])
	m.Side = Side(msg[32])
	m.UsernameLen = uint8(msg[33])

	// Calculate expected total length.
	expectedTotalLen := int(NewOrderMessageHeaderLen + m.UsernameLen)
	if len(msg) < expectedTotalLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Username = string(msg[NewOrderMessageHeaderLen:expectedTotalLen])

	return m, nil
}

type CancelOrderMessage struct {
	BaseMessage
	AssetType AssetType // 2 bytes
	OrderUUID string    // 36 bytes
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}

	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderUUID = string(msg[2 : 2+uuidLen])

	return m, nil
}

// ModifyOrderMessage resizes and/or reprices a resting order. Which of
// NewQuantity/NewLimitPrice/NewStopPrice the engine actually applies depends
// on the order's current kind, not anything carried on the wire — see
// Engine.ModifyOrder.
type ModifyOrderMessage struct {
	BaseMessage
	AssetType     AssetType // 2 bytes
	OrderUUID     string    // 36 bytes
	NewQuantity   uint64    // 8 bytes
	NewLimitPrice int64     // 8 bytes
	NewStopPrice  int64     // 8 bytes
}

func parseModifyOrder(msg []byte) (ModifyOrderMessage, error) {
	m := ModifyOrderMessage{BaseMessage: BaseMessage{TypeOf: ModifyOrder}}

	if len(msg) < ModifyOrderMessageHeaderLen {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderUUID = string(msg[2 : 2+uuidLen])
	offset := 2 + uuidLen
	m.NewQuantity = binary.BigEndian.Uint64(msg[offset : offset+8])
	m.NewLimitPrice = int64(binary.BigEndian.Uint64(msg[offset+8 : offset+16]))
	m.NewStopPrice = int64(binary.BigEndian.Uint64(msg[offset+16 : offset+24]))

	return m, nil
}

type Report struct {
	MessageType     ReportMessageType // 1 byte
	AssetType       AssetType         // 1 byte
	Side            Side              // 1 byte
	Timestamp       uint64            // 8 bytes
	Quantity        uint64            // 8 bytes
	Price           int64             // 8 bytes
	CounterpartyLen uint16            // 2 bytes
	ErrStrLen       uint32            // 4 bytes
	Ticker          string            // 4 bytes
	UUID            string            // 36 bytes
	Err             string            // n bytes
	Counterparty    string            // n bytes (in this case we show who)
}

const reportFixedHeaderLen = 1 + 1 + 1 + 8 + 8 + 8 + 2 + 4 + 4 + uuidLen

// Serialize converts the report to be sent on the wire.
func (r *Report) Serialize() ([]byte, error) {
	totalSize := reportFixedHeaderLen + len(r.Err) + len(r.Counterparty)

	buf := make([]byte, totalSize)
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.AssetType)
	buf[2] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[3:11], r.Timestamp)
	binary.BigEndian.PutUint64(buf[11:19], r.Quantity)
	binary.BigEndian.PutUint64(buf[19:27], uint64(r.Price))
	binary.BigEndian.PutUint16(buf[27:29], r.CounterpartyLen)
	binary.BigEndian.PutUint32(buf[29:33], r.ErrStrLen)

	// Pack Strings (Ticker and UUID) into fixed buffers.
	// copy() ensures we don't panic if strings are shorter.
	copy(buf[33:37], r.Ticker)
	copy(buf[37:37+uuidLen], r.UUID)

	offset := reportFixedHeaderLen
	if r.ErrStrLen > 0 {
		copy(buf[offset:], r.Err)
	}
	offset += int(r.ErrStrLen)
	if r.CounterpartyLen > 0 {
		copy(buf[offset:], r.Counterparty)
	}
	return buf, nil
}

// generateWireTradeReport builds the execution report for the taking side of
// a fill. The core never tells us who was on the other side of the match
// (spec.md keeps the book ignorant of that), so only one report goes out per
// Trade.
func generateWireTradeReport(trade Trade) ([]byte, error) {
	report := Report{
		MessageType: ExecutionReport,
		AssetType:   trade.Party.AssetType,
		Side:        trade.Party.Side,
		Timestamp:   uint64(trade.Timestamp.Unix()),
		Quantity:    trade.MatchQty,
		Price:       trade.Price,
		Ticker:      trade.Party.Ticker,
		UUID:        trade.Party.UUID,
	}
	return report.Serialize()
}

func generateWireErrorReports(err error) ([]byte, error) {
	errStr := fmt.Sprintf("%v", err)
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixNano()),
		ErrStrLen:   uint32(len(errStr)),
		Err:         errStr,
	}
	return report.Serialize()
}
