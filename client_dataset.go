package mmsclient

import (
	"errors"
	"fmt"
)

// ReadDataSet reads all member values of a data set.
func (c *Client) ReadDataSet(dataSetRef string) (node Node, err error) {
	defer c.recoverOp("ReadDataSet", dataSetRef, &err)

	if dataSetRef == "" {
		return nil, newError(KindConfiguration, "ReadDataSet", dataSetRef, ErrInvalidParams)
	}
	if err := c.lockSession("ReadDataSet", dataSetRef); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	v, err := c.conn.ReadDataSetValues(dataSetRef)
	if err != nil {
		c.emitError(Event{DatasetRef: dataSetRef, Reason: fmt.Sprintf("Failed to read dataset %s: %v", dataSetRef, err)})
		return nil, newError(KindEngine, "ReadDataSet", dataSetRef, err)
	}
	node = FromMmsValue(v, "")
	c.emit(Event{Type: TypeData, Name: EventDataSet, DatasetRef: dataSetRef, Value: node})
	return node, nil
}

// CreateDataSet creates a dynamic data set with the given member references.
func (c *Client) CreateDataSet(dataSetRef string, members []string) (err error) {
	defer c.recoverOp("CreateDataSet", dataSetRef, &err)

	if dataSetRef == "" || len(members) == 0 {
		return newError(KindConfiguration, "CreateDataSet", dataSetRef, ErrInvalidParams)
	}
	if err := c.lockSession("CreateDataSet", dataSetRef); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if err := c.conn.CreateDataSet(dataSetRef, members); err != nil {
		c.emitError(Event{DatasetRef: dataSetRef, Reason: fmt.Sprintf("Failed to create dataset %s: %v", dataSetRef, err)})
		return newError(KindEngine, "CreateDataSet", dataSetRef, err)
	}
	c.logger().WithField("datasetRef", dataSetRef).Info("dataset created")
	c.emit(Event{
		Type:       TypeControl,
		Name:       EventDataSetCreated,
		DatasetRef: dataSetRef,
		Data:       map[string]interface{}{"members": members},
	})
	return nil
}

// DeleteDataSet deletes a dynamic data set.
func (c *Client) DeleteDataSet(dataSetRef string) (err error) {
	defer c.recoverOp("DeleteDataSet", dataSetRef, &err)

	if dataSetRef == "" {
		return newError(KindConfiguration, "DeleteDataSet", dataSetRef, ErrInvalidParams)
	}
	if err := c.lockSession("DeleteDataSet", dataSetRef); err != nil {
		return err
	}
	defer c.mu.Unlock()

	deleted, err := c.conn.DeleteDataSet(dataSetRef)
	if err == nil && !deleted {
		err = errors.New("server refused to delete the dataset")
	}
	if err != nil {
		c.emitError(Event{DatasetRef: dataSetRef, Reason: fmt.Sprintf("Failed to delete dataset %s: %v", dataSetRef, err)})
		return newError(KindEngine, "DeleteDataSet", dataSetRef, err)
	}
	c.logger().WithField("datasetRef", dataSetRef).Info("dataset deleted")
	c.emit(Event{Type: TypeControl, Name: EventDataSetDeleted, DatasetRef: dataSetRef})
	return nil
}

// GetDataSetDirectory lists the data sets defined in a logical node.
func (c *Client) GetDataSetDirectory(logicalNodeRef string) (names []string, err error) {
	defer c.recoverOp("GetDataSetDirectory", logicalNodeRef, &err)

	if logicalNodeRef == "" {
		return nil, newError(KindConfiguration, "GetDataSetDirectory", logicalNodeRef, ErrInvalidParams)
	}
	if err := c.lockSession("GetDataSetDirectory", logicalNodeRef); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	names, err = c.conn.GetLogicalNodeDirectory(logicalNodeRef, ACSI_CLASS_DATA_SET)
	if err != nil {
		c.emitError(Event{
			LogicalNodeRef: logicalNodeRef,
			Reason:         fmt.Sprintf("Failed to get dataset directory for %s: %v", logicalNodeRef, err),
		})
		return nil, newError(KindEngine, "GetDataSetDirectory", logicalNodeRef, err)
	}
	if names == nil {
		names = []string{}
	}
	c.emit(Event{
		Type:           TypeData,
		Name:           EventDataSetDirectory,
		LogicalNodeRef: logicalNodeRef,
		Data:           map[string]interface{}{"dataSets": names},
	})
	return names, nil
}
