package permissions

import "fmt"

// viewOnlyBlocked are the flags that contradict view-only mode
var viewOnlyBlocked = []Feature{
	FeatureApproveComplaints,
	FeatureRejectComplaints,
	FeatureMarkComplaintsPending,
	FeatureEditComplaints,
	FeatureDeleteComplaints,
	FeatureEditUsers,
	FeatureDeleteUsers,
	FeatureAddUsers,
	FeatureEditAdmins,
	FeatureDeleteAdmins,
	FeatureAddAdmins,
	FeatureSendMessagesToUsers,
	FeatureSendMessagesToAdmins,
	FeatureExportData,
	FeatureDownloadReports,
}

// DetectConflicts lists human-readable contradictions in d. An empty result
// means the document is consistent.
func DetectConflicts(d Document) []string {
	f := d.Features
	var conflicts []string

	if f.ViewOnlyMode {
		for _, feature := range viewOnlyBlocked {
			if f.Get(feature) {
				conflicts = append(conflicts, fmt.Sprintf("View Only Mode is enabled but %q is also enabled", feature))
			}
		}
	}

	complaintAction := f.CanApproveComplaints || f.CanRejectComplaints || f.CanMarkComplaintsPending ||
		f.CanEditComplaints || f.CanDeleteComplaints
	if complaintAction && !f.CanViewComplaints {
		conflicts = append(conflicts, "Complaint actions enabled without View Complaints permission")
	}

	userAction := f.CanEditUsers || f.CanDeleteUsers || f.CanAddUsers
	if userAction && !f.CanViewUsers {
		conflicts = append(conflicts, "User actions enabled without View Users permission")
	}

	adminAction := f.CanEditAdmins || f.CanDeleteAdmins || f.CanAddAdmins
	if adminAction && !f.CanViewAdmins {
		conflicts = append(conflicts, "Admin actions enabled without View Admins permission")
	}

	if (f.CanSendMessagesToUsers || f.CanSendMessagesToAdmins) && !f.CanViewMessages {
		conflicts = append(conflicts, "Send Messages enabled without View Messages permission")
	}
	return conflicts
}
