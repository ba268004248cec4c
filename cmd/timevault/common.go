package main

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/exogenesis/timevault/internal/repository"
	"github.com/exogenesis/timevault/pkg/handler"
)

const (
	backendDynamoDB = "dynamodb"
	backendSQLite   = "sqlite"

	sourceDB     = "db"
	sourceBucket = "bucket"
)

// Logical resource IDs looked up when --stack-name is given
const (
	lookupTableResource     = "LookupTable"
	collectionTableResource = "CollectionTable"
	mediaBucketResource     = "MediaBucket"
	retryQueueResource      = "RetryQueue"
)

type arguments struct {
	StackName  string
	Region     string
	Backend    string
	SQLitePath string
	Source     string
	LogLevel   string

	handler.EnvVars
}

func (x arguments) describeStack() (map[string]*cloudformation.StackResource, error) {
	ssn := session.New(&aws.Config{Region: aws.String(x.Region)})
	client := cloudformation.New(ssn)

	input := &cloudformation.DescribeStackResourcesInput{
		StackName: aws.String(x.StackName),
	}

	output, err := client.DescribeStackResources(input)
	if err != nil {
		return nil, errors.Wrapf(err, "Fail to DescribeStackResources for %v", x.StackName)
	}

	resources := map[string]*cloudformation.StackResource{}
	for i := range output.StackResources {
		rsc := output.StackResources[i]
		resources[*rsc.LogicalResourceId] = rsc
	}

	return resources, nil
}

// resolveStack fills empty table, bucket and queue names with physical IDs of the stack
func (x *arguments) resolveStack() error {
	if x.StackName == "" {
		return nil
	}

	resources, err := x.describeStack()
	if err != nil {
		return err
	}

	fill := func(dst *string, logicalID string) {
		if *dst != "" {
			return
		}
		if rsc, ok := resources[logicalID]; ok && rsc.PhysicalResourceId != nil {
			*dst = *rsc.PhysicalResourceId
		}
	}
	fill(&x.LookupTableName, lookupTableResource)
	fill(&x.CollectionTableName, collectionTableResource)
	fill(&x.BucketName, mediaBucketResource)
	fill(&x.RetryQueueURL, retryQueueResource)

	logger.WithFields(logrus.Fields{
		"lookup":     x.LookupTableName,
		"collection": x.CollectionTableName,
		"bucket":     x.BucketName,
	}).Debug("Resolved stack resources")
	return nil
}

// handlerArguments builds handler.Arguments for the selected backend. Returned
// closer must be called when the command is done.
func (x *arguments) handlerArguments() (*handler.Arguments, func(), error) {
	if err := x.resolveStack(); err != nil {
		return nil, nil, err
	}

	args := &handler.Arguments{EnvVars: x.EnvVars}
	args.AwsRegion = x.Region
	closer := func() {}

	switch x.Backend {
	case backendDynamoDB:
		if args.TableName == "" && (args.LookupTableName == "" || args.CollectionTableName == "") {
			return nil, nil, fmt.Errorf("--table or both of --lookup-table and --collection-table are required for dynamodb backend")
		}
		if x.Region == "" {
			return nil, nil, fmt.Errorf("--region is required for dynamodb backend")
		}

	case backendSQLite:
		db, err := repository.NewSQLite(x.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		args.LookupRepo = db
		args.CollectionRepo = db
		closer = func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close SQLite")
			}
		}

	default:
		return nil, nil, fmt.Errorf("unsupported backend: %q", x.Backend)
	}

	args.SetupRepositories()
	return args, closer, nil
}

func (x *arguments) requireBucket() error {
	if x.BucketName == "" {
		return fmt.Errorf("--bucket is required")
	}
	if x.Region == "" {
		return fmt.Errorf("--region is required to access bucket")
	}
	return nil
}
