package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/models"
)

// ErrContactNotFound is returned when the contact id does not exist under
// the owner.
var ErrContactNotFound = errors.New("contact not found")

// ContactRepository stores contacts in the same table as users, keyed
// PK=USER#<owner email>, SK=CONTACT#<uuid>, so one Query by PK lists a
// user's address book.
type ContactRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewContactRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ContactRepository {
	return &ContactRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	now := time.Now()
	contact.ID = uuid.New().String()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	item, err := attributevalue.MarshalMap(contact)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal contact for DynamoDB")
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: contact.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: contact.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to create contact in DynamoDB")
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func (r *ContactRepository) Get(ctx context.Context, ownerEmail, id string) (*models.Contact, error) {
	contact := &models.Contact{OwnerEmail: ownerEmail, ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: contact.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: contact.GetSK()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if result.Item == nil {
		return nil, ErrContactNotFound
	}

	var dbContact models.Contact
	if err := attributevalue.UnmarshalMap(result.Item, &dbContact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact: %w", err)
	}

	return &dbContact, nil
}

// List returns all contacts owned by the user.
func (r *ContactRepository) List(ctx context.Context, ownerEmail string) ([]models.Contact, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk_prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":        &types.AttributeValueMemberS{Value: "USER#" + ownerEmail},
			":sk_prefix": &types.AttributeValueMemberS{Value: "CONTACT#"},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to query contacts from DynamoDB")
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	var contacts []models.Contact
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &contacts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contacts: %w", err)
	}

	return contacts, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	existing, err := r.Get(ctx, contact.OwnerEmail, contact.ID)
	if err != nil {
		return err
	}

	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(contact)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: contact.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: contact.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to update contact in DynamoDB")
		return fmt.Errorf("failed to update contact: %w", err)
	}

	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, ownerEmail, id string) error {
	contact := &models.Contact{OwnerEmail: ownerEmail, ID: id}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: contact.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: contact.GetSK()},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	return nil
}
