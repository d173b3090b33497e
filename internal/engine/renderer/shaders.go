package renderer

const sceneVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 u_model;
uniform mat4 u_view;
uniform mat4 u_projection;
uniform mat4 u_lightSpace;

out vec3 vNormal;
out vec3 vViewPos;
out vec4 vLightPos;

void main() {
	vec4 world = u_model * vec4(aPos, 1.0);
	vec4 view = u_view * world;
	vViewPos = view.xyz;
	vLightPos = u_lightSpace * world;
	vNormal = mat3(u_model) * aNormal;
	gl_Position = u_projection * view;
}
`

const sceneFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec3 vViewPos;
in vec4 vLightPos;

uniform vec3 u_color;
uniform vec3 u_lightDir;

uniform bool u_shadows;
uniform sampler2DShadow u_shadowMap;
uniform float u_shadowBias;

uniform bool u_fog;
uniform vec3 u_fogColor;
uniform float u_fogDensity;

// Planar reflection, sampled in screen space of the current target.
uniform bool u_mirror;
uniform sampler2D u_reflection;
uniform vec2 u_viewport;
uniform float u_reflectivity;

out vec4 FragColor;

void main() {
	vec3 n = normalize(vNormal);
	float diffuse = max(dot(n, -u_lightDir), 0.0);
	if (u_shadows) {
		vec3 p = vLightPos.xyz / vLightPos.w * 0.5 + 0.5;
		diffuse *= mix(0.35, 1.0, texture(u_shadowMap, vec3(p.xy, p.z - u_shadowBias)));
	}
	vec3 color = u_color * (0.3 + 0.7 * diffuse);

	if (u_mirror) {
		vec2 uv = gl_FragCoord.xy / u_viewport;
		vec3 reflected = texture(u_reflection, uv).rgb;
		color = mix(color, reflected, u_reflectivity);
	}

	if (u_fog) {
		float f = clamp(exp(-u_fogDensity * length(vViewPos)), 0.0, 1.0);
		color = mix(u_fogColor, color, f);
	}

	FragColor = vec4(color, 1.0);
}
`

const depthVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 u_model;
uniform mat4 u_lightSpace;

void main() {
	gl_Position = u_lightSpace * u_model * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core

void main() {}
`
