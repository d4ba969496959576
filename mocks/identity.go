package mocks

import (
	"crypto/x509"
	"fmt"
)

// ClientIdentity is a fake cid.ClientIdentity carrying a fixed principal.
type ClientIdentity struct {
	ID    string
	MSPID string
	Attrs map[string]string
}

// NewClientIdentity returns an identity with the given full ID and MSP.
func NewClientIdentity(id, mspID string) *ClientIdentity {
	return &ClientIdentity{ID: id, MSPID: mspID, Attrs: map[string]string{}}
}

func (c *ClientIdentity) GetID() (string, error)    { return c.ID, nil }
func (c *ClientIdentity) GetMSPID() (string, error) { return c.MSPID, nil }

func (c *ClientIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

func (c *ClientIdentity) GetAttributeValue(attrName string) (string, bool, error) {
	value, found := c.Attrs[attrName]
	return value, found, nil
}

func (c *ClientIdentity) AssertAttributeValue(attrName, attrValue string) error {
	value, found, err := c.GetAttributeValue(attrName)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("attribute '%s' not found", attrName)
	}
	if value != attrValue {
		return fmt.Errorf("attribute '%s' equals '%s', not '%s'", attrName, value, attrValue)
	}
	return nil
}
