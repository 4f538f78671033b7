/*****************************************************************************************************************/

// Command dasch-science-lambda is the Lambda entrypoint: it wires the
// three science handlers to a single invocation, selecting among them
// by the invoked function's ARN suffix.
package main

/*****************************************************************************************************************/

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pkgw/dasch-science-lambda/internal/config"
	"github.com/pkgw/dasch-science-lambda/internal/cutoutsvc"
	"github.com/pkgw/dasch-science-lambda/internal/dispatch"
	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/internal/queryexpssvc"
	"github.com/pkgw/dasch-science-lambda/internal/querycatsvc"
	"github.com/pkgw/dasch-science-lambda/internal/remotefits"
	"github.com/pkgw/dasch-science-lambda/pkg/skybin"
)

/*****************************************************************************************************************/

func main() {
	ctx := context.Background()

	cfg := config.FromEnv()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("dasch-science-lambda: loading AWS config: %v", err)
	}

	store := &metastore.DynamoStore{
		DynamoDB:    dynamodb.NewFromConfig(awsCfg),
		S3:          s3.NewFromConfig(awsCfg),
		Environment: cfg.Environment,
		Bucket:      cfg.Bucket,
	}

	registry := remotefits.NewRegistry(s3.NewFromConfig(awsCfg))

	bin1, err := skybin.NewBin1()
	if err != nil {
		log.Fatalf("dasch-science-lambda: constructing bin1: %v", err)
	}
	bin64, err := skybin.NewBin64()
	if err != nil {
		log.Fatalf("dasch-science-lambda: constructing bin64: %v", err)
	}

	cutout := &cutoutsvc.Service{Store: store, Registry: registry, Bucket: cfg.Bucket}
	queryexps := &queryexpssvc.Service{Store: store, Bin1: bin1}
	querycat := &querycatsvc.Service{Store: store, Bin64: bin64}

	router := dispatch.NewRouter(map[string]dispatch.Handler{
		"cutout":    cutout.Handle,
		"queryexps": queryexps.Handle,
		"querycat":  querycat.Handle,
	})

	lambda.Start(func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		lc, ok := lambdacontext.FromContext(ctx)
		if !ok {
			return nil, errors.New("dasch-science-lambda: no Lambda context available on invocation")
		}

		return router.Dispatch(ctx, lc.InvokedFunctionArn, payload)
	})
}

/*****************************************************************************************************************/
