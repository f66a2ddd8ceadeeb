package workflow

import (
	dErrors "caseflow/pkg/domain-errors"
)

// EntityType classifies the subject of a case.
type EntityType string

const (
	EntityIndividualAccount EntityType = "individual_account"
	EntityJointAccount      EntityType = "joint_account"
	EntityCorporate         EntityType = "corporate"
	EntityPartnership       EntityType = "partnership"
	EntityTrust             EntityType = "trust"
)

// RelationshipRole names how a linked party relates to the case entity. The
// role lives on the link, not on the party: the same person can be a director
// on one case and a UBO on another.
type RelationshipRole string

const (
	RelationDirector            RelationshipRole = "director"
	RelationShareholder         RelationshipRole = "shareholder"
	RelationUBO                 RelationshipRole = "ubo"
	RelationAuthorizedSignatory RelationshipRole = "authorized_signatory"
	RelationPartner             RelationshipRole = "partner"
	RelationSettlor             RelationshipRole = "settlor"
	RelationTrustee             RelationshipRole = "trustee"
	RelationBeneficiary         RelationshipRole = "beneficiary"
	RelationProtector           RelationshipRole = "protector"
	RelationJointHolder         RelationshipRole = "joint_holder"
)

// linkRoles maps each entity type to the relationship roles it permits. An
// individual account has an implicit single-party identity and permits no
// links at all, so it has no entry.
var linkRoles = map[EntityType][]RelationshipRole{
	EntityJointAccount: {RelationJointHolder},
	EntityCorporate:    {RelationDirector, RelationShareholder, RelationUBO, RelationAuthorizedSignatory},
	EntityPartnership:  {RelationPartner, RelationUBO, RelationAuthorizedSignatory},
	EntityTrust:        {RelationSettlor, RelationTrustee, RelationBeneficiary, RelationProtector},
}

// CanLinkParty reports whether cases of the given entity type accept
// additional party links.
func CanLinkParty(entityType EntityType) bool {
	return len(linkRoles[entityType]) > 0
}

// AllowedLinkRoles returns the relationship roles valid for the given entity
// type, in declaration order. Empty for individual accounts.
func AllowedLinkRoles(entityType EntityType) []RelationshipRole {
	roles := linkRoles[entityType]
	out := make([]RelationshipRole, len(roles))
	copy(out, roles)
	return out
}

// CheckLinkRole validates a party-link request against the entity type's role
// mapping.
func CheckLinkRole(entityType EntityType, role RelationshipRole) error {
	if !CanLinkParty(entityType) {
		return dErrors.New(dErrors.CodeInvalidRole, "entity type does not accept party links").
			Add("entity_type", string(entityType))
	}
	for _, allowed := range linkRoles[entityType] {
		if allowed == role {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvalidRole, "relationship role not valid for entity type").
		Add("entity_type", string(entityType)).
		Add("relationship_role", string(role))
}

// ValidEntityType reports whether t is a known entity type.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityIndividualAccount, EntityJointAccount, EntityCorporate, EntityPartnership, EntityTrust:
		return true
	}
	return false
}
