package permissions

import "github.com/cleancare/ccadmin/pkg/auth"

// Document is a user's permission document
type Document struct {
	Zones      IDSet[int64]  `json:"zones"`
	Wards      IDSet[int64]  `json:"wards"`
	Categories IDSet[string] `json:"categories"`
	Features   Features      `json:"features"`
}

// Patch is a partial Document. Nil scope sets keep the current value and
// Features entries are overlaid flag by flag.
type Patch struct {
	Zones      *IDSet[int64]    `json:"zones,omitempty"`
	Wards      *IDSet[int64]    `json:"wards,omitempty"`
	Categories *IDSet[string]   `json:"categories,omitempty"`
	Features   map[Feature]bool `json:"features,omitempty"`
}

// Apply returns d with p merged over it
func (d Document) Apply(p Patch) (Document, error) {
	out := d
	if p.Zones != nil {
		out.Zones = *p.Zones
	}
	if p.Wards != nil {
		out.Wards = *p.Wards
	}
	if p.Categories != nil {
		out.Categories = *p.Categories
	}
	for feature, value := range p.Features {
		if err := out.Features.Set(feature, value); err != nil {
			return Document{}, invalidf("%v", err)
		}
	}
	return out, nil
}

// RoleDefaults returns the document a user of role gets before anything is
// stored for them. zoneID and wardID are the user's legacy profile fields.
func RoleDefaults(role auth.Role, zoneID, wardID *int64) Document {
	switch role {
	case auth.RoleMasterAdmin:
		return Document{Features: allFeatures()}
	case auth.RoleSuperAdmin:
		f := allFeatures()
		f.CanDeleteComplaints = false
		f.CanDeleteUsers = false
		f.CanDeleteAdmins = false
		return Document{Zones: subsetOf(zoneID), Features: f}
	case auth.RoleAdmin:
		return Document{
			Zones: subsetOf(zoneID),
			Wards: subsetOf(wardID),
			Features: Features{
				CanViewComplaints:        true,
				CanApproveComplaints:     true,
				CanRejectComplaints:      true,
				CanMarkComplaintsPending: true,
				CanEditComplaints:        true,
				CanViewUsers:             true,
				CanViewMessages:          true,
				CanSendMessagesToUsers:   true,
			},
		}
	default:
		return Document{Features: Features{ViewOnlyMode: true}}
	}
}

func allFeatures() Features {
	var f Features
	for _, feature := range AllFeatures {
		f.Set(feature, true)
	}
	f.ViewOnlyMode = false
	return f
}

func subsetOf(id *int64) IDSet[int64] {
	if id == nil {
		return All[int64]()
	}
	return Subset(*id)
}
