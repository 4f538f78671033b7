/*****************************************************************************************************************/

package metastore

/*****************************************************************************************************************/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

/*****************************************************************************************************************/

// ErrNotFound is returned by GetPlate when the requested plate id is
// absent from the key-value store.
var ErrNotFound = errors.New("metastore: plate not found")

/*****************************************************************************************************************/

const batchSize = 100

/*****************************************************************************************************************/

// DynamoStore is the production Store implementation, backed by
// DynamoDB for plate/refcat rows and S3 for coverage CSVs.
type DynamoStore struct {
	DynamoDB    *dynamodb.Client
	S3          *s3.Client
	Environment string
	Bucket      string
}

/*****************************************************************************************************************/

func (d *DynamoStore) platesTable() string {
	return fmt.Sprintf("dasch-%s-dr7-plates", d.Environment)
}

/*****************************************************************************************************************/

func (d *DynamoStore) refcatTable(refcat string) string {
	return fmt.Sprintf("dasch-%s-dr7-refcat-%s", d.Environment, refcat)
}

/*****************************************************************************************************************/

// buildProjectionExpression returns a ProjectionExpression string and its
// ExpressionAttributeNames map for a set of dotted attribute paths.
func buildProjectionExpression(p Projection) (string, map[string]string) {
	names := make(map[string]string)
	parts := make([]string, 0, len(p))

	for i, attr := range p {
		segments := strings.Split(attr, ".")
		aliasSegments := make([]string, len(segments))

		for j, seg := range segments {
			alias := fmt.Sprintf("#p%d_%d", i, j)
			names[alias] = seg
			aliasSegments[j] = alias
		}

		parts = append(parts, strings.Join(aliasSegments, "."))
	}

	return strings.Join(parts, ", "), names
}

/*****************************************************************************************************************/

// GetPlate performs a point GetItem for one plate id.
func (d *DynamoStore) GetPlate(ctx context.Context, plateID string, projection Projection) (*Plate, error) {
	expr, names := buildProjectionExpression(projection)

	out, err := d.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(d.platesTable()),
		Key:                      map[string]types.AttributeValue{"plateId": &types.AttributeValueMemberS{Value: plateID}},
		ProjectionExpression:     aws.String(expr),
		ExpressionAttributeNames: names,
	})
	if err != nil {
		return nil, fmt.Errorf("metastore: GetItem %s: %w", plateID, err)
	}

	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	plate, err := decodePlateItem(plateID, out.Item)
	if err != nil {
		return nil, err
	}

	return plate, nil
}

/*****************************************************************************************************************/

// BatchGetPlates batches point reads up to 100 keys per request,
// resubmitting the store's "unprocessed keys" continuation until every
// requested id has been resolved.
func (d *DynamoStore) BatchGetPlates(ctx context.Context, plateIDs []string, projection Projection) ([]*Plate, error) {
	expr, names := buildProjectionExpression(projection)

	var results []*Plate

	pending := append([]string(nil), plateIDs...)

	for len(pending) > 0 {
		n := batchSize
		if n > len(pending) {
			n = len(pending)
		}

		batch := pending[:n]
		pending = pending[n:]

		keys := make([]map[string]types.AttributeValue, 0, len(batch))
		for _, id := range batch {
			keys = append(keys, map[string]types.AttributeValue{"plateId": &types.AttributeValueMemberS{Value: id}})
		}

		requestItems := map[string]types.KeysAndAttributes{
			d.platesTable(): {
				Keys:                     keys,
				ProjectionExpression:     aws.String(expr),
				ExpressionAttributeNames: names,
			},
		}

		for len(requestItems) > 0 {
			out, err := d.DynamoDB.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: requestItems})
			if err != nil {
				return nil, fmt.Errorf("metastore: BatchGetItem: %w", err)
			}

			for _, item := range out.Responses[d.platesTable()] {
				id, _ := item["plateId"].(*types.AttributeValueMemberS)
				plateID := ""
				if id != nil {
					plateID = id.Value
				}

				plate, err := decodePlateItem(plateID, item)
				if err != nil {
					return nil, err
				}

				results = append(results, plate)
			}

			if len(out.UnprocessedKeys) == 0 {
				break
			}

			requestItems = out.UnprocessedKeys

			// Top up the in-flight batch with more pending ids so we
			// keep making progress even while draining unprocessed keys.
			for len(requestItems[d.platesTable()].Keys) < batchSize && len(pending) > 0 {
				id := pending[0]
				pending = pending[1:]

				ka := requestItems[d.platesTable()]
				ka.Keys = append(ka.Keys, map[string]types.AttributeValue{"plateId": &types.AttributeValueMemberS{Value: id}})
				requestItems[d.platesTable()] = ka
			}
		}
	}

	return results, nil
}

/*****************************************************************************************************************/

// QueryRefcatBin issues a paginated Query against the refcat table's
// gscBinIndex partition key.
func (d *DynamoStore) QueryRefcatBin(ctx context.Context, refcat string, bin int64, yield func(RefcatRow) bool) error {
	table := d.refcatTable(refcat)

	paginator := dynamodb.NewQueryPaginator(d.DynamoDB, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("gscBinIndex = :b"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberN{Value: strconv.FormatInt(bin, 10)},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("metastore: Query %s bin %d: %w", table, bin, err)
		}

		for _, item := range page.Items {
			row, err := decodeRefcatItem(item)
			if err != nil {
				continue
			}
			if !yield(row) {
				return nil
			}
		}
	}

	return nil
}

/*****************************************************************************************************************/

// FetchCoverageCSV streams non-empty lines from the coverage CSV object
// at `dasch-dr7-coverage-bins/{totalBin}.csv`.
func (d *DynamoStore) FetchCoverageCSV(ctx context.Context, totalBin int, yield func(plateID string, se SolExp) error) error {
	key := fmt.Sprintf("dasch-dr7-coverage-bins/%d.csv", totalBin)

	out, err := d.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("metastore: GetObject %s: %w", key, err)
	}
	defer out.Body.Close()

	scanner := bufio.NewScanner(out.Body)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}

		plateID := fields[0]

		solNum, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}

		expNum, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			continue
		}

		if err := yield(plateID, SolExp{SolNum: solNum, ExpNum: expNum}); err != nil {
			return err
		}
	}

	return scanner.Err()
}

/*****************************************************************************************************************/

func decodePlateItem(plateID string, item map[string]types.AttributeValue) (*Plate, error) {
	var raw struct {
		Series      string `dynamodbav:"series"`
		PlateNumber int    `dynamodbav:"plateNumber"`
		Astrometry  *struct {
			B01HeaderGz   []byte `dynamodbav:"b01HeaderGz"`
			NSolutions    int    `dynamodbav:"nSolutions"`
			RotationDelta int    `dynamodbav:"rotationDelta"`
			Exposures     []struct {
				Number       int      `dynamodbav:"number"`
				RADeg        *float64 `dynamodbav:"raDeg"`
				DecDeg       *float64 `dynamodbav:"decDeg"`
				DurMin       *float64 `dynamodbav:"durMin"`
				MidpointDate string   `dynamodbav:"midpointDate"`
				Source       string   `dynamodbav:"source"`
			} `dynamodbav:"exposures"`
		} `dynamodbav:"astrometry"`
		Mosaic *struct {
			B01Width      int    `dynamodbav:"b01Width"`
			B01Height     int    `dynamodbav:"b01Height"`
			CreationDate  string `dynamodbav:"creationDate"`
			MosNum        int    `dynamodbav:"mosNum"`
			ScanNum       int    `dynamodbav:"scanNum"`
			S3KeyTemplate string `dynamodbav:"s3KeyTemplate"`
		} `dynamodbav:"mosaic"`
	}

	if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
		return nil, fmt.Errorf("metastore: %w: decoding plate %s: %v", errSchema, plateID, err)
	}

	plate := &Plate{
		PlateID:     plateID,
		Series:      raw.Series,
		PlateNumber: raw.PlateNumber,
	}

	if raw.Astrometry != nil {
		exposures := make([]Exposure, 0, len(raw.Astrometry.Exposures))
		for _, e := range raw.Astrometry.Exposures {
			exposures = append(exposures, Exposure{
				Number:       e.Number,
				RADeg:        e.RADeg,
				DecDeg:       e.DecDeg,
				DurMin:       e.DurMin,
				MidpointDate: e.MidpointDate,
				Source:       e.Source,
			})
		}

		plate.Astrometry = &Astrometry{
			B01HeaderGz:   raw.Astrometry.B01HeaderGz,
			NSolutions:    raw.Astrometry.NSolutions,
			RotationDelta: raw.Astrometry.RotationDelta,
			Exposures:     exposures,
		}
	}

	if raw.Mosaic != nil {
		plate.Mosaic = &Mosaic{
			B01Width:      raw.Mosaic.B01Width,
			B01Height:     raw.Mosaic.B01Height,
			CreationDate:  raw.Mosaic.CreationDate,
			MosNum:        raw.Mosaic.MosNum,
			ScanNum:       raw.Mosaic.ScanNum,
			S3KeyTemplate: raw.Mosaic.S3KeyTemplate,
		}
	}

	return plate, nil
}

/*****************************************************************************************************************/

var errSchema = errors.New("schema error")

/*****************************************************************************************************************/

func decodeRefcatItem(item map[string]types.AttributeValue) (RefcatRow, error) {
	var raw struct {
		RefNumber   uint64   `dynamodbav:"refNumber"`
		RADeg       float64  `dynamodbav:"raDeg"`
		DecDeg      float64  `dynamodbav:"decDeg"`
		GscBinIndex int64    `dynamodbav:"gscBinIndex"`
		PMRaMasyr   *float64 `dynamodbav:"pmRaMasyr"`
		PMDecMasyr  *float64 `dynamodbav:"pmDecMasyr"`
		UPMRaMasyr  *float64 `dynamodbav:"uPMRaMasyr"`
		UPMDecMasyr *float64 `dynamodbav:"uPMDecMasyr"`
		StdMag      *float64 `dynamodbav:"stdmag"`
		Color       *float64 `dynamodbav:"color"`
		VFlag       string   `dynamodbav:"vFlag"`
		MagFlag     string   `dynamodbav:"magFlag"`
		Class       string   `dynamodbav:"class"`
	}

	if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
		return RefcatRow{}, fmt.Errorf("%w: %v", errSchema, err)
	}

	return RefcatRow{
		RefNumber:   raw.RefNumber,
		RADeg:       raw.RADeg,
		DecDeg:      raw.DecDeg,
		GscBinIndex: raw.GscBinIndex,
		PMRaMasyr:   raw.PMRaMasyr,
		PMDecMasyr:  raw.PMDecMasyr,
		UPMRaMasyr:  raw.UPMRaMasyr,
		UPMDecMasyr: raw.UPMDecMasyr,
		StdMag:      raw.StdMag,
		Color:       raw.Color,
		VFlag:       raw.VFlag,
		MagFlag:     raw.MagFlag,
		Class:       raw.Class,
	}, nil
}

/*****************************************************************************************************************/
