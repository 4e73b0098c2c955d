package mmsclient

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BrowseDataModel enumerates logical devices, logical nodes, their data sets
// with members and their report control blocks. No values are read.
func (c *Client) BrowseDataModel() (model DataModel, err error) {
	defer c.recoverOp("BrowseDataModel", "", &err)

	if err := c.lockSession("BrowseDataModel", ""); err != nil {
		return DataModel{}, err
	}
	defer c.mu.Unlock()

	ldNames, err := c.logicalDeviceList("BrowseDataModel")
	if err != nil {
		return DataModel{}, err
	}

	log := c.logger()
	for _, ldName := range ldNames {
		ld := LD{Data: ldName, LNs: []LN{}}
		lnNames, err := c.conn.GetLogicalDeviceDirectory(ldName)
		if err != nil {
			log.WithField("ld", ldName).WithError(err).Warn("failed to get logical device directory")
		}
		for _, lnName := range lnNames {
			ld.LNs = append(ld.LNs, c.browseLN(ldName, lnName))
		}
		model.LDs = append(model.LDs, ld)
	}

	c.emit(Event{Type: TypeData, Name: EventDataModel, Data: map[string]interface{}{"logicalDevices": model.LDs}})
	return model, nil
}

func (c *Client) browseLN(ldName, lnName string) LN {
	lnRef := fmt.Sprintf("%s/%s", ldName, lnName)
	ln := LN{Data: lnName, Ref: lnRef, DSs: []DS{}}
	log := c.logger().WithField("ln", lnRef)

	dataSets, err := c.conn.GetLogicalNodeDirectory(lnRef, ACSI_CLASS_DATA_SET)
	if err != nil {
		log.WithError(err).Debug("failed to get data set directory")
	}
	for _, dsName := range dataSets {
		ds := DS{Data: dsName, Ref: fmt.Sprintf("%s.%s", lnRef, dsName), DSRefs: []DSRef{}}
		members, isDeletable, err := c.conn.GetDataSetDirectory(ds.Ref)
		if err != nil {
			log.WithField("ds", ds.Ref).WithError(err).Debug("failed to get data set members")
		}
		ds.IsDeletable = isDeletable
		for _, member := range members {
			ds.DSRefs = append(ds.DSRefs, DSRef{Data: member})
		}
		ln.DSs = append(ln.DSs, ds)
	}

	reports, err := c.conn.GetLogicalNodeDirectory(lnRef, ACSI_CLASS_URCB)
	if err != nil {
		log.WithError(err).Debug("failed to get URCB directory")
	}
	for _, name := range reports {
		ln.URReports = append(ln.URReports, URReport{Data: name, Ref: fmt.Sprintf("%s.RP.%s", lnRef, name)})
	}

	reports, err = c.conn.GetLogicalNodeDirectory(lnRef, ACSI_CLASS_BRCB)
	if err != nil {
		log.WithError(err).Debug("failed to get BRCB directory")
	}
	for _, name := range reports {
		ln.BRReports = append(ln.BRReports, BRReport{Data: name, Ref: fmt.Sprintf("%s.BR.%s", lnRef, name)})
	}
	return ln
}

// GetLogicalDevices walks logical devices, logical nodes, data objects and
// their attributes and reads every attribute value. Branches that fail to
// list are kept empty. It fails only when the device list cannot be read or
// is empty.
func (c *Client) GetLogicalDevices() (model DataModel, err error) {
	defer c.recoverOp("GetLogicalDevices", "", &err)

	if err := c.lockSession("GetLogicalDevices", ""); err != nil {
		return DataModel{}, err
	}
	defer c.mu.Unlock()

	ldNames, err := c.logicalDeviceList("GetLogicalDevices")
	if err != nil {
		return DataModel{}, err
	}

	log := c.logger()
	for _, ldName := range ldNames {
		ld := LD{Data: ldName, LNs: []LN{}}
		lnNames, err := c.conn.GetLogicalDeviceDirectory(ldName)
		if err != nil {
			log.WithField("ld", ldName).WithError(err).Warn("failed to get logical device directory")
		}
		for _, lnName := range lnNames {
			lnRef := fmt.Sprintf("%s/%s", ldName, lnName)
			ln := LN{Data: lnName, Ref: lnRef, DOs: []DO{}}
			doNames, err := c.conn.GetLogicalNodeDirectory(lnRef, ACSI_CLASS_DATA_OBJECT)
			if err != nil {
				log.WithField("ln", lnRef).WithError(err).Warn("failed to get logical node directory")
			}
			for _, doName := range doNames {
				doRef := fmt.Sprintf("%s.%s", lnRef, doName)
				ln.DOs = append(ln.DOs, DO{Data: doName, Ref: doRef, DAs: c.readDAs(doRef, NONE)})
			}
			ld.LNs = append(ld.LNs, ln)
		}
		model.LDs = append(model.LDs, ld)
	}

	c.emit(Event{Type: TypeData, Name: EventLogicalDevices, Data: map[string]interface{}{"logicalDevices": model.LDs}})
	return model, nil
}

// readDAs lists the attributes below parentRef and reads each of them,
// descending into sub-attributes.
func (c *Client) readDAs(parentRef string, parentFC FC) []DA {
	rawNames, err := c.conn.GetDataDirectoryFC(parentRef)
	if err != nil {
		return []DA{}
	}

	das := make([]DA, 0, len(rawNames))
	for _, rawName := range rawNames {
		name, fc := splitFCSuffix(rawName)
		ref := fmt.Sprintf("%s.%s", parentRef, name)
		if fc == NONE {
			if hinted, ok := matchFC(ref); ok {
				fc = hinted
			} else if parentFC != NONE {
				fc = parentFC
			} else {
				fc = ST
			}
		}

		da := DA{Data: name, Ref: ref, FC: fc}
		v, err := c.conn.ReadObject(ref, fc)
		if err != nil {
			c.logger().WithFields(logrus.Fields{"dataRef": ref, "fc": fc}).WithError(err).Debug("attribute read failed")
			da.Value = InvalidNode{Cause: err.Error()}
		} else {
			da.Value = FromMmsValue(v, name)
		}
		da.DAs = c.readDAs(ref, fc)
		das = append(das, da)
	}
	return das
}

func (c *Client) logicalDeviceList(op string) ([]string, error) {
	ldNames, err := c.conn.GetLogicalDeviceList()
	if err != nil {
		c.emitError(Event{Reason: fmt.Sprintf("Failed to get logical device list: %v", err)})
		return nil, newError(KindEngine, op, "", err)
	}
	if len(ldNames) == 0 {
		c.emitError(Event{Reason: "No valid logical devices found"})
		return nil, newError(KindEngine, op, "", ErrNoLogicalDevices)
	}
	return ldNames, nil
}
