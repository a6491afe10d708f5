package mongo

import (
	"fmt"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemDal is an order line as stored in the document.
type ItemDal struct {
	ID       string               `bson:"id"`
	Name     string               `bson:"name"`
	Price    primitive.Decimal128 `bson:"price"`
	Quantity int                  `bson:"quantity"`
	Image    string               `bson:"image"`
}

// AddressDal is the embedded shipping address.
type AddressDal struct {
	Address string `bson:"address"`
	City    string `bson:"city"`
	Country string `bson:"country"`
	Zip     string `bson:"zip"`
}

// OrderDal represents an order document of the orders collection.
type OrderDal struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	OrderNumber     string               `bson:"orderNumber"`
	UserID          string               `bson:"userId"`
	UserEmail       string               `bson:"userEmail"`
	UserName        string               `bson:"userName"`
	Items           []ItemDal            `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	ShippingCharge  primitive.Decimal128 `bson:"shippingCharge"`
	Total           primitive.Decimal128 `bson:"total"`
	PaymentMethod   string               `bson:"paymentMethod"`
	PaymentID       *string              `bson:"paymentId"`
	ShippingAddress AddressDal           `bson:"shippingAddress"`
	Phone           string               `bson:"phone,omitempty"`
	Status          string               `bson:"status"`
	CreatedAt       string               `bson:"createdAt"`
	UpdatedAt       string               `bson:"updatedAt"`
}

// ToModel converts OrderDal to the service layer Order.
func (d *OrderDal) ToModel() (order.Order, error) {
	items := make([]order.Item, len(d.Items))
	for i, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return order.Order{}, fmt.Errorf("failed to convert price of item %s: %w", it.ID, err)
		}
		items[i] = order.Item{
			ID:       it.ID,
			Name:     it.Name,
			Price:    price,
			Quantity: it.Quantity,
			Image:    it.Image,
		}
	}

	subtotal, err := fromDecimal128(d.Subtotal)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert subtotal: %w", err)
	}
	shipping, err := fromDecimal128(d.ShippingCharge)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert shipping charge: %w", err)
	}
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert total: %w", err)
	}

	createdAt, err := order.ParseTimestamp(d.CreatedAt)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to parse createdAt: %w", err)
	}
	updatedAt, err := order.ParseTimestamp(d.UpdatedAt)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to parse updatedAt: %w", err)
	}

	return order.Order{
		ID:             d.ID.Hex(),
		OrderNumber:    d.OrderNumber,
		UserID:         d.UserID,
		UserEmail:      d.UserEmail,
		UserName:       d.UserName,
		Items:          items,
		Subtotal:       subtotal,
		ShippingCharge: shipping,
		Total:          total,
		PaymentMethod:  order.PaymentMethod(d.PaymentMethod),
		PaymentID:      d.PaymentID,
		ShippingAddress: order.ShippingAddress{
			Address: d.ShippingAddress.Address,
			City:    d.ShippingAddress.City,
			Country: d.ShippingAddress.Country,
			Zip:     d.ShippingAddress.Zip,
		},
		Phone:     d.Phone,
		Status:    order.Status(d.Status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// OrderDalFromModel converts the service layer Order to OrderDal. The id is left
// empty when the order has none so that the driver generates it.
func OrderDalFromModel(o *order.Order) (*OrderDal, error) {
	d := &OrderDal{
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		UserEmail:     o.UserEmail,
		UserName:      o.UserName,
		Items:         make([]ItemDal, len(o.Items)),
		PaymentMethod: o.PaymentMethod.String(),
		PaymentID:     o.PaymentID,
		ShippingAddress: AddressDal{
			Address: o.ShippingAddress.Address,
			City:    o.ShippingAddress.City,
			Country: o.ShippingAddress.Country,
			Zip:     o.ShippingAddress.Zip,
		},
		Phone:     o.Phone,
		Status:    o.Status.String(),
		CreatedAt: order.FormatTimestamp(o.CreatedAt),
		UpdatedAt: order.FormatTimestamp(o.UpdatedAt),
	}

	if o.ID != "" {
		id, err := primitive.ObjectIDFromHex(o.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid order id %q: %w", o.ID, err)
		}
		d.ID = id
	}

	var err error
	for i, it := range o.Items {
		d.Items[i] = ItemDal{ID: it.ID, Name: it.Name, Quantity: it.Quantity, Image: it.Image}
		if d.Items[i].Price, err = toDecimal128(it.Price); err != nil {
			return nil, err
		}
	}
	if d.Subtotal, err = toDecimal128(o.Subtotal); err != nil {
		return nil, err
	}
	if d.ShippingCharge, err = toDecimal128(o.ShippingCharge); err != nil {
		return nil, err
	}
	if d.Total, err = toDecimal128(o.Total); err != nil {
		return nil, err
	}

	return d, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d, err)
	}

	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}
