package auth

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

// Claims represents the JWT claims extracted from the API Gateway authorizer context
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	CognitoID string `json:"sub"`
	CompanyID int64  `json:"company_id"`
	IsAdmin   bool   `json:"isAdmin"`
}

// ExtractClaimsFromRequest extracts and parses JWT claims from API Gateway request
func ExtractClaimsFromRequest(request events.APIGatewayProxyRequest) (*Claims, error) {
	// Get claims from authorizer context
	var claimsMap map[string]interface{}
	var ok bool

	if authClaims, exists := request.RequestContext.Authorizer["claims"]; exists {
		claimsMap, ok = authClaims.(map[string]interface{})
	}

	// If claims not found, try direct access to authorizer (some API Gateway configurations)
	if !ok {
		claimsMap = request.RequestContext.Authorizer
		ok = (claimsMap != nil)
	}

	if !ok || claimsMap == nil {
		return nil, fmt.Errorf("claims not found in authorizer context")
	}

	userID, err := extractInt64Claim(claimsMap, "user_id")
	if err != nil {
		return nil, err
	}

	companyID, err := extractInt64Claim(claimsMap, "company_id")
	if err != nil {
		return nil, err
	}

	email, ok := claimsMap["email"].(string)
	if !ok {
		return nil, fmt.Errorf("email not found or invalid in claims")
	}

	cognitoID, ok := claimsMap["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("sub not found or invalid in claims")
	}

	var isAdmin bool
	if adminValue, exists := claimsMap["isAdmin"]; exists {
		if isAdmin, ok = adminValue.(bool); !ok {
			// Try as string "true"/"false"
			if adminStr, ok := adminValue.(string); ok && adminStr == "true" {
				isAdmin = true
			}
		}
	}

	return &Claims{
		UserID:    userID,
		Email:     email,
		CognitoID: cognitoID,
		CompanyID: companyID,
		IsAdmin:   isAdmin,
	}, nil
}

// extractInt64Claim reads a numeric claim that may arrive as a string or a
// JSON number (float64)
func extractInt64Claim(claimsMap map[string]interface{}, name string) (int64, error) {
	value, exists := claimsMap[name]
	if !exists {
		return 0, fmt.Errorf("%s not found in claims", name)
	}

	if strValue, ok := value.(string); ok {
		parsed, err := strconv.ParseInt(strValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s string: %w", name, err)
		}
		return parsed, nil
	}

	if floatValue, ok := value.(float64); ok {
		return int64(floatValue), nil
	}

	return 0, fmt.Errorf("%s has unexpected type", name)
}

// ToJSON converts claims to JSON string for logging
func (c *Claims) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}
