package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"fenrir/internal/common"
	fenrirNet "fenrir/internal/net"
)

// reportFixedHeaderLen matches the server's Report.Serialize layout:
// 1+1+1+8+8+8+2+4+4+36 = 73 bytes.
const reportFixedHeaderLen = 73

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	owner := flag.String("owner", "", "Owner username (compulsory)")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'modify', 'log']")

	// Order parameters.
	ticker := flag.String("ticker", "AAPL", "Ticker symbol (max 4 chars)")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit', 'market', 'stop' or 'stop-limit'")
	limitPrice := flag.Int64("price", 100, "Limit price, in ticks")
	stopPrice := flag.Int64("stop", 0, "Stop (trigger) price, in ticks")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	// Cancel/modify parameters.
	uuid := flag.String("uuid", "", "UUID of the order to cancel/modify")

	flag.Parse()

	if *owner == "" {
		fmt.Println("Error: -owner is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverAddr, *owner)

	go readReports(conn)

	side := common.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Sell
	}

	orderType := orderTypeFromFlag(*typeStr)

	switch strings.ToLower(*action) {
	case "place":
		quantities := parseQuantities(*qtyStr)
		for _, q := range quantities {
			err := sendPlaceOrder(conn, *owner, common.Equities, orderType, *ticker, *limitPrice, *stopPrice, q, side)
			if err != nil {
				log.Printf("Failed to place order (Qty: %d): %v", q, err)
			} else {
				fmt.Printf("-> Sent %s %s Order: %s %d @ %d (stop %d)\n", strings.ToUpper(*sideStr), orderType, *ticker, q, *limitPrice, *stopPrice)
			}
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *uuid == "" {
			log.Fatal("Error: -uuid is required for cancellation")
		}
		if err := sendCancelOrder(conn, common.Equities, *uuid); err != nil {
			log.Printf("Failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> Sent Cancel Request for UUID: %s\n", *uuid)
		}

	case "modify":
		if *uuid == "" {
			log.Fatal("Error: -uuid is required for modify")
		}
		quantities := parseQuantities(*qtyStr)
		if len(quantities) == 0 {
			log.Fatal("Error: -qty must be a valid quantity")
		}
		if err := sendModifyOrder(conn, common.Equities, *uuid, quantities[0], *limitPrice, *stopPrice); err != nil {
			log.Printf("Failed to send modify request: %v", err)
		} else {
			fmt.Printf("-> Sent Modify Request for UUID: %s\n", *uuid)
		}

	case "log":
		if err := sendLog(conn); err != nil {
			log.Printf("Failed to send log request: %v", err)
		} else {
			fmt.Println("-> Sent Log Request")
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

func orderTypeFromFlag(s string) common.OrderType {
	switch strings.ToLower(s) {
	case "market":
		return common.MarketOrder
	case "stop":
		return common.StopMarketOrder
	case "stop-limit":
		return common.StopLimitOrder
	default:
		return common.LimitOrder
	}
}

// parseQuantities splits a comma-separated string into a slice of uint64.
func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("Warning: Invalid quantity '%s', skipping.", p)
		}
	}
	return result
}

// sendPlaceOrder constructs and sends a NewOrder message.
func sendPlaceOrder(conn net.Conn, owner string, asset common.AssetType, orderType common.OrderType, ticker string, limitPrice, stopPrice int64, qty uint64, side common.Side) error {
	usernameLen := len(owner)
	totalLen := fenrirNet.BaseMessageHeaderLen + fenrirNet.NewOrderMessageHeaderLen + usernameLen

	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.NewOrder))

	binary.BigEndian.PutUint16(buf[2:4], uint16(asset))
	binary.BigEndian.PutUint16(buf[4:6], uint16(orderType))

	tickerBytes := make([]byte, 4)
	copy(tickerBytes, ticker)
	copy(buf[6:10], tickerBytes)

	binary.BigEndian.PutUint64(buf[10:18], uint64(limitPrice))
	binary.BigEndian.PutUint64(buf[18:26], uint64(stopPrice))
	binary.BigEndian.PutUint64(buf[26:34], qty)

	buf[34] = byte(side)
	buf[35] = uint8(usernameLen)

	copy(buf[36:], owner)

	_, err := conn.Write(buf)
	return err
}

// sendCancelOrder constructs and sends a CancelOrder message.
func sendCancelOrder(conn net.Conn, asset common.AssetType, uuid string) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fenrirNet.CancelOrderMessageHeaderLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.CancelOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(asset))
	copy(buf[4:40], uuid)

	_, err := conn.Write(buf)
	return err
}

// sendModifyOrder constructs and sends a ModifyOrder message.
func sendModifyOrder(conn net.Conn, asset common.AssetType, uuid string, newQty uint64, newLimit, newStop int64) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fenrirNet.ModifyOrderMessageHeaderLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.ModifyOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(asset))
	copy(buf[4:40], uuid)
	binary.BigEndian.PutUint64(buf[40:48], newQty)
	binary.BigEndian.PutUint64(buf[48:56], uint64(newLimit))
	binary.BigEndian.PutUint64(buf[56:64], uint64(newStop))

	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.LogBook))
	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and parses Report messages from the server.
func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, reportFixedHeaderLen)
		_, err := io.ReadFull(conn, headerBuf)
		if err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := fenrirNet.ReportMessageType(headerBuf[0])
		side := common.Side(headerBuf[2])

		qty := binary.BigEndian.Uint64(headerBuf[11:19])
		price := int64(binary.BigEndian.Uint64(headerBuf[19:27]))
		counterpartyLen := binary.BigEndian.Uint16(headerBuf[27:29])
		errStrLen := binary.BigEndian.Uint32(headerBuf[29:33])

		ticker := strings.TrimRight(string(headerBuf[33:37]), "\x00")
		uuid := strings.TrimRight(string(headerBuf[37:73]), "\x00")

		totalVarLen := int(counterpartyLen) + int(errStrLen)
		varBuf := make([]byte, totalVarLen)
		if totalVarLen > 0 {
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				log.Printf("Error reading report body: %v", err)
				break
			}
		}

		errStr := ""
		counterparty := ""
		if errStrLen > 0 {
			errStr = string(varBuf[:errStrLen])
		}
		if counterpartyLen > 0 {
			counterparty = string(varBuf[errStrLen:])
		}

		if msgType == fenrirNet.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
		} else {
			sideStr := "BUY"
			if side == common.Sell {
				sideStr = "SELL"
			}
			fmt.Printf("\n[EXECUTION] Match: %s %s | Qty: %d | Price: %d | vs: %s | UUID: %s\n",
				sideStr, ticker, qty, price, counterparty, uuid)
		}
	}
}
