package permissions

import "fmt"

// Feature names a single capability flag
type Feature string

const (
	FeatureViewComplaints        Feature = "canViewComplaints"
	FeatureApproveComplaints     Feature = "canApproveComplaints"
	FeatureRejectComplaints      Feature = "canRejectComplaints"
	FeatureMarkComplaintsPending Feature = "canMarkComplaintsPending"
	FeatureEditComplaints        Feature = "canEditComplaints"
	FeatureDeleteComplaints      Feature = "canDeleteComplaints"

	FeatureViewUsers   Feature = "canViewUsers"
	FeatureEditUsers   Feature = "canEditUsers"
	FeatureDeleteUsers Feature = "canDeleteUsers"
	FeatureAddUsers    Feature = "canAddUsers"

	FeatureViewAdmins   Feature = "canViewAdmins"
	FeatureEditAdmins   Feature = "canEditAdmins"
	FeatureDeleteAdmins Feature = "canDeleteAdmins"
	FeatureAddAdmins    Feature = "canAddAdmins"

	FeatureViewMessages         Feature = "canViewMessages"
	FeatureSendMessagesToUsers  Feature = "canSendMessagesToUsers"
	FeatureSendMessagesToAdmins Feature = "canSendMessagesToAdmins"
	FeatureViewAnalytics        Feature = "canViewAnalytics"
	FeatureExportData           Feature = "canExportData"
	FeatureDownloadReports      Feature = "canDownloadReports"
	FeatureViewOnlyMode         Feature = "viewOnlyMode"
)

// Features is the closed set of capability flags
type Features struct {
	CanViewComplaints        bool `json:"canViewComplaints"`
	CanApproveComplaints     bool `json:"canApproveComplaints"`
	CanRejectComplaints      bool `json:"canRejectComplaints"`
	CanMarkComplaintsPending bool `json:"canMarkComplaintsPending"`
	CanEditComplaints        bool `json:"canEditComplaints"`
	CanDeleteComplaints      bool `json:"canDeleteComplaints"`

	CanViewUsers   bool `json:"canViewUsers"`
	CanEditUsers   bool `json:"canEditUsers"`
	CanDeleteUsers bool `json:"canDeleteUsers"`
	CanAddUsers    bool `json:"canAddUsers"`

	CanViewAdmins   bool `json:"canViewAdmins"`
	CanEditAdmins   bool `json:"canEditAdmins"`
	CanDeleteAdmins bool `json:"canDeleteAdmins"`
	CanAddAdmins    bool `json:"canAddAdmins"`

	CanViewMessages         bool `json:"canViewMessages"`
	CanSendMessagesToUsers  bool `json:"canSendMessagesToUsers"`
	CanSendMessagesToAdmins bool `json:"canSendMessagesToAdmins"`

	CanViewAnalytics   bool `json:"canViewAnalytics"`
	CanExportData      bool `json:"canExportData"`
	CanDownloadReports bool `json:"canDownloadReports"`

	// ViewOnlyMode blocks every write regardless of the other flags
	ViewOnlyMode bool `json:"viewOnlyMode"`
}

// AllFeatures lists every flag in document order
var AllFeatures = []Feature{
	FeatureViewComplaints, FeatureApproveComplaints, FeatureRejectComplaints,
	FeatureMarkComplaintsPending, FeatureEditComplaints, FeatureDeleteComplaints,
	FeatureViewUsers, FeatureEditUsers, FeatureDeleteUsers, FeatureAddUsers,
	FeatureViewAdmins, FeatureEditAdmins, FeatureDeleteAdmins, FeatureAddAdmins,
	FeatureViewMessages, FeatureSendMessagesToUsers, FeatureSendMessagesToAdmins,
	FeatureViewAnalytics, FeatureExportData, FeatureDownloadReports,
	FeatureViewOnlyMode,
}

var featureFields = map[Feature]func(*Features) *bool{
	FeatureViewComplaints:        func(f *Features) *bool { return &f.CanViewComplaints },
	FeatureApproveComplaints:     func(f *Features) *bool { return &f.CanApproveComplaints },
	FeatureRejectComplaints:      func(f *Features) *bool { return &f.CanRejectComplaints },
	FeatureMarkComplaintsPending: func(f *Features) *bool { return &f.CanMarkComplaintsPending },
	FeatureEditComplaints:        func(f *Features) *bool { return &f.CanEditComplaints },
	FeatureDeleteComplaints:      func(f *Features) *bool { return &f.CanDeleteComplaints },
	FeatureViewUsers:             func(f *Features) *bool { return &f.CanViewUsers },
	FeatureEditUsers:             func(f *Features) *bool { return &f.CanEditUsers },
	FeatureDeleteUsers:           func(f *Features) *bool { return &f.CanDeleteUsers },
	FeatureAddUsers:              func(f *Features) *bool { return &f.CanAddUsers },
	FeatureViewAdmins:            func(f *Features) *bool { return &f.CanViewAdmins },
	FeatureEditAdmins:            func(f *Features) *bool { return &f.CanEditAdmins },
	FeatureDeleteAdmins:          func(f *Features) *bool { return &f.CanDeleteAdmins },
	FeatureAddAdmins:             func(f *Features) *bool { return &f.CanAddAdmins },
	FeatureViewMessages:          func(f *Features) *bool { return &f.CanViewMessages },
	FeatureSendMessagesToUsers:   func(f *Features) *bool { return &f.CanSendMessagesToUsers },
	FeatureSendMessagesToAdmins:  func(f *Features) *bool { return &f.CanSendMessagesToAdmins },
	FeatureViewAnalytics:         func(f *Features) *bool { return &f.CanViewAnalytics },
	FeatureExportData:            func(f *Features) *bool { return &f.CanExportData },
	FeatureDownloadReports:       func(f *Features) *bool { return &f.CanDownloadReports },
	FeatureViewOnlyMode:          func(f *Features) *bool { return &f.ViewOnlyMode },
}

// ParseFeature validates a flag name
func ParseFeature(s string) (Feature, error) {
	f := Feature(s)
	if _, ok := featureFields[f]; !ok {
		return "", fmt.Errorf("unknown feature: %q", s)
	}
	return f, nil
}

// Get returns the flag's value. Unknown flags are false.
func (f Features) Get(feature Feature) bool {
	field, ok := featureFields[feature]
	if !ok {
		return false
	}
	return *field(&f)
}

// Set assigns the flag's value
func (f *Features) Set(feature Feature, value bool) error {
	field, ok := featureFields[feature]
	if !ok {
		return fmt.Errorf("unknown feature: %q", feature)
	}
	*field(f) = value
	return nil
}
