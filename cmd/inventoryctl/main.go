// Command inventoryctl inspects and adjusts MiniHub stock over the gRPC
// inventory service.
//
//	inventoryctl [-addr host:port] get <product-id>
//	inventoryctl [-addr host:port] list [-category c] [-search s] [-sort price-low]
//	inventoryctl [-addr host:port] decrement <product-id> <amount>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"minihub/internal/clients"
	inventoryrpc "minihub/internal/delivery/grpc"

	"github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage: inventoryctl [-addr host:port] get <id> | list [flags] | decrement <id> <amount>")

func main() {
	addr := flag.String("addr", "localhost:50051", "inventory gRPC address")
	verbose := flag.Bool("v", false, "log client calls")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := clients.NewInventoryGRPCClient(*addr, logger)
	if err != nil {
		logger.Fatalf("Failed to create inventory client: %v", err)
	}
	defer client.Close()

	if err := run(ctx, client, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run executes one subcommand and writes its result to out as indented JSON.
func run(ctx context.Context, client clients.InventoryClient, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	var result interface{}
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return errUsage
		}
		product, err := client.GetProduct(ctx, args[1])
		if err != nil {
			return err
		}
		result = product

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var req inventoryrpc.ListProductsRequest
		fs.StringVar(&req.Category, "category", "", "category filter")
		fs.StringVar(&req.Search, "search", "", "title, description or tag search")
		fs.StringVar(&req.MinPrice, "min-price", "", "lowest price")
		fs.StringVar(&req.MaxPrice, "max-price", "", "highest price")
		fs.StringVar(&req.Sort, "sort", "", "newest, oldest, price-low, price-high or rating")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		products, err := client.ListProducts(ctx, &req)
		if err != nil {
			return err
		}
		result = products

	case "decrement":
		if len(args) != 3 {
			return errUsage
		}
		amount, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: amount %q is not a number", errUsage, args[2])
		}
		product, err := client.DecrementInventory(ctx, args[1], amount)
		if err != nil {
			return err
		}
		result = product

	default:
		return errUsage
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
