// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import "net/http"

// Reason is a stable denial reason code. Codes are part of the API
// contract: they are surfaced to callers verbatim and never carry internal
// error detail.
type Reason string

// Denial reasons, grouped by pipeline stage.
const (
	// ReasonUnauthenticated - no principal resolved upstream.
	ReasonUnauthenticated Reason = "UNAUTHENTICATED"

	// ReasonNoOrganization - principal lacks an organization binding.
	ReasonNoOrganization Reason = "NO_ORGANIZATION"

	// ReasonOrganizationSuspended - tenancy blocked.
	ReasonOrganizationSuspended Reason = "ORGANIZATION_SUSPENDED"

	// ReasonImpersonationNotAllowed - non-admin attempted tenant override.
	ReasonImpersonationNotAllowed Reason = "IMPERSONATION_NOT_ALLOWED"

	// ReasonInvalidOrganization - override target missing, inactive, or suspended.
	ReasonInvalidOrganization Reason = "INVALID_ORGANIZATION"

	// ReasonFeatureNotAvailableForOrgType - the organization's type does
	// not support the feature (wrong org type, not an upgrade problem).
	ReasonFeatureNotAvailableForOrgType Reason = "FEATURE_NOT_AVAILABLE_FOR_ORG_TYPE"

	// ReasonFeatureNotEnabledForOrganization - feature absent from the
	// organization's module allow list.
	ReasonFeatureNotEnabledForOrganization Reason = "FEATURE_NOT_ENABLED_FOR_ORGANIZATION"

	// ReasonFeatureNotInPlan - feature absent from the subscription plan
	// (needs upgrade).
	ReasonFeatureNotInPlan Reason = "FEATURE_NOT_IN_PLAN"

	// ReasonMissingCapability - required capability absent.
	ReasonMissingCapability Reason = "MISSING_CAPABILITY"

	// ReasonMissingPermission - no covering role grants the resource:action pair.
	ReasonMissingPermission Reason = "MISSING_PERMISSION"

	// ReasonMissingRole - required role name not held.
	ReasonMissingRole Reason = "MISSING_ROLE"

	// ReasonInsufficientRoleLevel - maximum role level below requirement.
	ReasonInsufficientRoleLevel Reason = "INSUFFICIENT_ROLE_LEVEL"

	// ReasonOrgTypeNotAllowed - organization type not in the route's allow set.
	ReasonOrgTypeNotAllowed Reason = "ORG_TYPE_NOT_ALLOWED"
)

// reasonMessages maps reason codes to the stable user-facing messages.
var reasonMessages = map[Reason]string{
	ReasonUnauthenticated:                  "authentication required",
	ReasonNoOrganization:                   "no organization associated with this account",
	ReasonOrganizationSuspended:            "organization is suspended",
	ReasonImpersonationNotAllowed:          "organization override is restricted to platform administrators",
	ReasonInvalidOrganization:              "target organization does not exist or is not active",
	ReasonFeatureNotAvailableForOrgType:    "feature is not available for this organization type",
	ReasonFeatureNotEnabledForOrganization: "feature is not enabled for this organization",
	ReasonFeatureNotInPlan:                 "feature is not included in the current subscription plan",
	ReasonMissingCapability:                "required capability is not granted",
	ReasonMissingPermission:                "required permission is not granted",
	ReasonMissingRole:                      "required role is not held",
	ReasonInsufficientRoleLevel:            "role level is insufficient for this operation",
	ReasonOrgTypeNotAllowed:                "operation is not available for this organization type",
}

// Message returns the stable user-facing message for the reason.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "access denied"
}

// HTTPStatus maps the reason to its transport-level status code.
func (r Reason) HTTPStatus() int {
	switch r {
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonInvalidOrganization:
		return http.StatusNotFound
	case ReasonFeatureNotInPlan:
		// Payment-adjacent: the feature exists but the plan lacks it.
		return http.StatusPaymentRequired
	default:
		return http.StatusForbidden
	}
}

// Decision is the pipeline outcome for one request.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Reason is set on denial. Empty when allowed.
	Reason Reason

	// Filter is the scoping filter produced by the tenancy stage. Nil for
	// public routes, tenancy-bypassing routes, and non-impersonating
	// platform admins (organization-agnostic requests).
	Filter *ScopingFilter

	// ImpersonatedOrg is set when the tenancy stage resolved an
	// impersonation target; used to populate confirmation headers.
	ImpersonatedOrg *ImpersonatedOrg
}

// ImpersonatedOrg identifies the organization an admin substituted for the
// request scope.
type ImpersonatedOrg struct {
	ID   string
	Name string
}

// Allow builds an allowing decision with the given filter (may be nil).
func Allow(filter *ScopingFilter) Decision {
	return Decision{Allowed: true, Filter: filter}
}

// Deny builds a denying decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
